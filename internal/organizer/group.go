package organizer

import (
	"time"

	"github.com/sakif/notifydo/internal/model"
)

// Bucket names a due-date group.
type Bucket string

const (
	BucketOverdue   Bucket = "overdue"
	BucketToday     Bucket = "today"
	BucketTomorrow  Bucket = "tomorrow"
	BucketThisWeek  Bucket = "thisWeek"
	BucketLater     Bucket = "later"
	BucketNoDueDate Bucket = "noDueDate"
)

// Buckets is the display order of the groups.
var Buckets = []Bucket{
	BucketOverdue,
	BucketToday,
	BucketTomorrow,
	BucketThisWeek,
	BucketLater,
	BucketNoDueDate,
}

// Title is the heading shown above a bucket.
func (b Bucket) Title() string {
	switch b {
	case BucketOverdue:
		return "Overdue"
	case BucketToday:
		return "Today"
	case BucketTomorrow:
		return "Tomorrow"
	case BucketThisWeek:
		return "This Week"
	case BucketLater:
		return "Later"
	case BucketNoDueDate:
		return "No Due Date"
	}
	return string(b)
}

// Group is one non-empty bucket and its tasks in input order.
type Group struct {
	Bucket Bucket
	Tasks  []model.Task
}

// GroupTasks partitions tasks into buckets relative to now. Calendar days
// and the week (Sunday to Saturday) are taken in now's location.
//
// Each task lands in exactly one bucket, checked in this order: no due date,
// overdue (before the start of today), today, tomorrow, the rest of this
// week, later. Empty buckets are left out of the result.
func GroupTasks(tasks []model.Task, now time.Time) []Group {
	byBucket := make(map[Bucket][]model.Task, len(Buckets))
	for _, t := range tasks {
		b := BucketFor(t, now)
		byBucket[b] = append(byBucket[b], t)
	}

	groups := make([]Group, 0, len(byBucket))
	for _, b := range Buckets {
		if len(byBucket[b]) > 0 {
			groups = append(groups, Group{Bucket: b, Tasks: byBucket[b]})
		}
	}
	return groups
}

// BucketFor reports which bucket t falls into at time now.
func BucketFor(t model.Task, now time.Time) Bucket {
	if t.DueDate == nil {
		return BucketNoDueDate
	}

	due := t.DueDate.In(now.Location())
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)
	nextWeek := today.AddDate(0, 0, 7-int(today.Weekday()))

	switch {
	case due.Before(today):
		return BucketOverdue
	case due.Before(tomorrow):
		return BucketToday
	case due.Before(dayAfter):
		return BucketTomorrow
	case due.Before(nextWeek):
		return BucketThisWeek
	}
	return BucketLater
}

// startOfDay is midnight of t's calendar day in t's location. AddDate on
// the result keeps DST days correct, unlike adding 24h.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
