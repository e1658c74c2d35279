package grammar

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Product is one weighted, guarded alternative of a Rule.
type Product struct {
	// Weight is the relative selection weight; the parser defaults it to 1.
	Weight float64
	// Guard gates eligibility. Nil means always eligible.
	Guard Expression
	Ops   []Operation
}

// Rule is a named set of alternative Products.
type Rule struct {
	Name string
	// Guard gates the whole rule. Nil means always eligible.
	Guard    Expression
	Products []Product
}

// RuleSet maps rule names to rules. It is built once and only read after.
type RuleSet struct {
	rules map[string]*Rule
	order []string
}

// NewRuleSet builds a RuleSet, rejecting duplicate names.
func NewRuleSet(rules ...*Rule) (*RuleSet, error) {
	rs := &RuleSet{rules: make(map[string]*Rule, len(rules))}
	for _, r := range rules {
		if _, dup := rs.rules[r.Name]; dup {
			return nil, fmt.Errorf("%w %q", ErrDuplicateRule, r.Name)
		}
		rs.rules[r.Name] = r
		rs.order = append(rs.order, r.Name)
	}
	return rs, nil
}

// Rule returns the named rule or an *UndefinedRuleError.
func (rs *RuleSet) Rule(name string) (*Rule, error) {
	if r, ok := rs.rules[name]; ok {
		return r, nil
	}
	return nil, &UndefinedRuleError{Name: name, Suggestions: rs.suggest(name)}
}

// Has reports whether name is declared.
func (rs *RuleSet) Has(name string) bool {
	_, ok := rs.rules[name]
	return ok
}

// Names returns rule names in declaration order.
func (rs *RuleSet) Names() []string {
	return slices.Clone(rs.order)
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.order)
}

// Validate checks that every rule reference resolves. All dangling
// references are reported together.
func (rs *RuleSet) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, name := range rs.order {
		for _, p := range rs.rules[name].Products {
			for _, op := range p.Ops {
				for _, ref := range References(op) {
					if rs.Has(ref) || seen[ref] {
						continue
					}
					seen[ref] = true
					_, err := rs.Rule(ref)
					errs = append(errs, fmt.Errorf("rule %q: %w", name, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// suggest returns up to three declared names close to name: fuzzy
// subsequence matches first, then names within a small edit distance.
func (rs *RuleSet) suggest(name string) []string {
	names := rankNames(name, rs.order)
	if len(names) > 3 {
		names = names[:3]
	}
	return names
}

func rankNames(name string, candidates []string) []string {
	var names []string
	ranks := fuzzy.RankFindFold(name, candidates)
	sort.Sort(ranks)
	for _, r := range ranks {
		names = append(names, r.Target)
	}
	for _, c := range candidates {
		if slices.Contains(names, c) {
			continue
		}
		if fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c)) <= 2 {
			names = append(names, c)
		}
	}
	return names
}
