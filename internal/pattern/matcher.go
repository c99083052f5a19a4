// Package pattern evaluates similarity pattern rules against transaction
// descriptions.
package pattern

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/finsort/finsort/internal/model"
)

// CategoryStore resolves parent-only rules to a concrete child category.
// Children must come back ordered by name; the first one wins.
type CategoryStore interface {
	GetCategoriesByParent(ctx context.Context, parentID int64) ([]model.Category, error)
}

// Match is a resolved rule match: the winning rule plus the concrete
// category it maps to.
type Match struct {
	Rule       model.Rule
	CategoryID int64
}

// Matcher evaluates rules against free-text descriptions. It caches
// compiled regexes per rule id and is not safe for concurrent use; create
// one per operation.
type Matcher struct {
	categories CategoryStore
	compiled   map[int64]*regexp.Regexp
}

// NewMatcher creates a matcher backed by the given category store.
func NewMatcher(categories CategoryStore) *Matcher {
	return &Matcher{
		categories: categories,
		compiled:   make(map[int64]*regexp.Regexp),
	}
}

// FindBestMatch evaluates every rule against the description and returns
// the highest-confidence match, or nil when nothing matches. Ties keep the
// first rule found. A winning rule that carries only a parent category is
// resolved to the parent's first child by name; if the parent has no
// children the match is discarded.
func (m *Matcher) FindBestMatch(ctx context.Context, description string, rules []model.Rule) (*Match, error) {
	var best *model.Rule
	for i := range rules {
		rule := &rules[i]
		if !m.matches(rule, description) {
			continue
		}
		if best == nil || rule.Confidence > best.Confidence {
			best = rule
		}
	}
	if best == nil {
		return nil, nil //nolint:nilnil // no match is not an error
	}

	if best.CategoryID != nil {
		return &Match{Rule: *best, CategoryID: *best.CategoryID}, nil
	}
	if best.ParentCategoryID != nil {
		children, err := m.categories.GetCategoriesByParent(ctx, *best.ParentCategoryID)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, nil //nolint:nilnil // parent has no resolvable child
		}
		return &Match{Rule: *best, CategoryID: children[0].ID}, nil
	}
	return nil, nil //nolint:nilnil // rule without a target never resolves
}

// matches applies the rule's pattern type semantics, case-insensitively.
func (m *Matcher) matches(rule *model.Rule, description string) bool {
	desc := strings.ToLower(description)
	value := strings.ToLower(rule.PatternValue)

	switch rule.PatternType {
	case model.PatternExact:
		return desc == value
	case model.PatternStartsWith:
		return strings.HasPrefix(desc, value)
	case model.PatternRegex:
		re := m.compileRule(rule)
		return re != nil && re.MatchString(description)
	default:
		// contains, plus any rule type this binary doesn't know yet
		return strings.Contains(desc, value)
	}
}

// compileRule compiles a regex rule once, caching the result. A rule whose
// expression fails to compile simply never matches; one malformed rule must
// not abort a scan.
func (m *Matcher) compileRule(rule *model.Rule) *regexp.Regexp {
	if re, ok := m.compiled[rule.ID]; ok {
		return re
	}
	re, err := regexp.Compile("(?i)" + rule.PatternValue)
	if err != nil {
		slog.Warn("skipping rule with invalid regex",
			"rule_id", rule.ID,
			"pattern", rule.PatternValue,
			"error", err)
		re = nil
	}
	m.compiled[rule.ID] = re
	return re
}
