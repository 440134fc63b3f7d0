package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Priority is the urgency of a task. The zero value is not a valid
// priority; callers use ParsePriority or the constants below.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is applied when a task is created without one.
const DefaultPriority = PriorityMedium

// Valid reports whether p is one of low, medium or high.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities from most to least urgent: high=0, medium=1, low=2.
// Unknown values rank after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Task is a single to-do item owned by exactly one user.
//
// DueDate is a pointer because "no due date" is a real state, distinct
// from the zero time. Tags keeps the caller's order; duplicates are the
// caller's problem.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskInput is the body of a create request. Only Title is required.
type TaskInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// TaskPatch is the body of an update request.
//
// Every field distinguishes "absent" from "present": a nil pointer means
// the field was not sent and the stored value is kept, while a non-nil
// pointer is applied even when it holds a zero value (completed=false,
// description=""). DueDate needs a third state, explicit null, which
// clears the due date.
type TaskPatch struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Completed   *bool        `json:"completed,omitempty"`
	DueDate     NullableTime `json:"dueDate,omitzero"`
	Priority    *Priority    `json:"priority,omitempty"`
	Tags        *[]string    `json:"tags,omitempty"`
}

// Empty reports whether the patch carries no fields at all.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		!p.DueDate.Set && p.Priority == nil && p.Tags == nil
}

// Apply copies every present field of p onto t. It does not validate and
// does not touch ID, UserID or the timestamps.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Time
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
}

// NullableTime is a JSON field that remembers whether it was present.
//
//	absent          → Set=false
//	"dueDate": null → Set=true, Time=nil
//	"dueDate": "…"  → Set=true, Time=&t
//
// encoding/json calls UnmarshalJSON for an explicit null on a non-pointer
// field, which is what makes the middle case observable.
type NullableTime struct {
	Set  bool
	Time *time.Time
}

// SetTime returns a present NullableTime holding t.
func SetTime(t time.Time) NullableTime {
	return NullableTime{Set: true, Time: &t}
}

// ClearTime returns a present NullableTime holding null.
func ClearTime() NullableTime {
	return NullableTime{Set: true}
}

// IsZero lets `omitzero` drop an absent value when encoding.
func (n NullableTime) IsZero() bool {
	return !n.Set
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Time = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	n.Time = &t
	return nil
}

func (n NullableTime) MarshalJSON() ([]byte, error) {
	if n.Time == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Time)
}
