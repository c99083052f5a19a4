package model

import "time"

// PatternType selects the matching semantics of a rule.
type PatternType string

// Pattern type constants. Values outside this set are treated as
// PatternContains by the matcher so new types can be introduced without
// breaking old binaries.
const (
	PatternExact      PatternType = "exact"
	PatternContains   PatternType = "contains"
	PatternStartsWith PatternType = "starts_with"
	PatternRegex      PatternType = "regex"
)

// Rule is a user-authored similarity pattern tied to a target category.
// At least one of CategoryID and ParentCategoryID is set; when only a
// parent is given the matcher resolves a concrete child at match time.
type Rule struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CategoryID       *int64
	ParentCategoryID *int64
	PatternValue     string
	PatternType      PatternType
	Confidence       float64
	UseCount         int
	ID               int64
}
