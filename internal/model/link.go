package model

import "time"

// CategoryLink associates a transaction with exactly one category. The
// storage layer enforces a uniqueness constraint on TransactionID, so a
// transaction never carries two links; the parent reference is denormalized
// for aggregation queries.
type CategoryLink struct {
	CreatedAt        time.Time
	ParentCategoryID *int64
	TransactionID    string
	CategoryID       int64
	ID               int64
}

// AssignmentResult reports the outcome of a manual category assignment.
type AssignmentResult struct {
	TransactionID  string
	AssignmentID   int64
	CategoryID     int64
	SimilarUpdated int
}

// ScanResult reports the outcome of one batch auto-categorization run.
type ScanResult struct {
	Categorized int
	Total       int
}
