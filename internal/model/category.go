package model

import "time"

// Category is a concrete spending category. It sits at most one level below
// a parent category; there are no grandchildren.
type Category struct {
	CreatedAt time.Time
	ParentID  *int64
	Name      string
	ID        int64
}

// ParentCategory groups categories for aggregation.
type ParentCategory struct {
	CreatedAt time.Time
	Name      string
	ID        int64
}
