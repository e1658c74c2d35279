package grammar

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. Any of these aborts a whole generation run.
var (
	ErrUnboundAttribute = errors.New("unbound attribute")
	ErrUndefinedRule    = errors.New("undefined rule")
	ErrDuplicateRule    = errors.New("duplicate rule")
	ErrUnknownFaceAttr  = errors.New("unknown face attribute")
	ErrNoFace           = errors.New("no current face")
	ErrSyntax           = errors.New("syntax error")
)

// UndefinedRuleError names a rule that was referenced but never declared,
// along with declared names that look like what the author meant.
type UndefinedRuleError struct {
	Name        string
	Suggestions []string
}

func (e *UndefinedRuleError) Error() string {
	msg := fmt.Sprintf("%v %q", ErrUndefinedRule, e.Name)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + quoteJoin(e.Suggestions) + "?)"
	}
	return msg
}

// Is makes errors.Is(err, ErrUndefinedRule) hold.
func (e *UndefinedRuleError) Is(target error) bool {
	return target == ErrUndefinedRule
}

// SyntaxError locates a parse failure in the grammar source.
type SyntaxError struct {
	Line, Col int
	Msg       string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %v: %s", e.Line, e.Col, ErrSyntax, e.Msg)
}

// Is makes errors.Is(err, ErrSyntax) hold.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, " or ")
}
