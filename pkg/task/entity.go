package task

import "time"

// Named priority levels. The column is free-form, these are the values the
// client offers.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DefaultPriority is applied when a task is created without one.
const DefaultPriority = PriorityMedium

// Task is a todo item owned by exactly one user.
type Task struct {
	ID          int64
	UserID      string
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Category    *string
	Priority    *string
	DueDate     *time.Time
	Order       int
}

// Status filters tasks by completion.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Filter narrows ListByOwner. Zero values mean "no constraint".
type Filter struct {
	Status   Status
	Category string
	Priority string
	Search   string
	Limit    int
	Offset   int
}

// Patch carries a partial update. Nil fields are left untouched; the Clear*
// flags null out the corresponding nullable column.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	Category    *string
	Priority    *string
	DueDate     *time.Time
	Order       *int

	ClearDescription bool
	ClearCategory    bool
	ClearDueDate     bool
}

// Apply copies the patch onto t.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.ClearDescription {
		t.Description = nil
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Category != nil {
		t.Category = p.Category
	}
	if p.ClearCategory {
		t.Category = nil
	}
	if p.Priority != nil {
		t.Priority = p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
}
