// Package organizer arranges a user's task list for display: search
// filtering, ordering, due-date buckets and a per-day calendar index.
//
// Everything here is pure. Functions never modify their input slice; they
// return new slices that share the task values.
package organizer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sakif/notifydo/internal/model"
)

// Filter keeps a task when it passes the completion toggle and the search.
//
// A task passes the toggle when showCompleted is set or the task is still
// open. It passes the search when term is empty or is a case-insensitive
// substring of the title, the description or any single tag.
func Filter(tasks []model.Task, term string, showCompleted bool) []model.Task {
	needle := strings.ToLower(term)
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed && !showCompleted {
			continue
		}
		if needle != "" && !matches(t, needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matches(t model.Task, needle string) bool {
	if strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// SortKey selects the ordering used by Sort.
type SortKey string

const (
	SortByDueDate   SortKey = "dueDate"
	SortByPriority  SortKey = "priority"
	SortByCreatedAt SortKey = "createdAt"
)

// SortKeys lists the accepted keys in the order they are offered to users.
var SortKeys = []SortKey{SortByDueDate, SortByPriority, SortByCreatedAt}

// ParseSortKey accepts a key name case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (want dueDate, priority or createdAt)", s)
}

// Sort returns a stably sorted copy of tasks.
//
//	dueDate   → earliest first, undated tasks last
//	priority  → high, medium, low
//	createdAt → newest first
//
// An unknown key returns the copy in input order.
func Sort(tasks []model.Task, key SortKey) []model.Task {
	out := slices.Clone(tasks)
	if out == nil {
		out = []model.Task{}
	}

	switch key {
	case SortByDueDate:
		slices.SortStableFunc(out, compareDueDate)
	case SortByPriority:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	case SortByCreatedAt:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return out
}

func compareDueDate(a, b model.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

// Remaining counts the tasks that are not completed.
func Remaining(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}
