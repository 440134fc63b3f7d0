package organizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notifydo/internal/model"
)

// Wednesday 2026-03-11 14:00 UTC. The week runs Sun 8th to Sat 14th.
var wednesday = time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC)

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name string
		due  *time.Time
		want Bucket
	}{
		{"no due date", nil, BucketNoDueDate},
		{"yesterday", at(wednesday.AddDate(0, 0, -1)), BucketOverdue},
		{"last second of yesterday", at(time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)), BucketOverdue},
		{"earlier today", at(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)), BucketToday},
		{"in ten minutes", at(wednesday.Add(10 * time.Minute)), BucketToday},
		{"tomorrow", at(time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)), BucketTomorrow},
		{"saturday", at(time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)), BucketThisWeek},
		{"next sunday", at(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)), BucketLater},
		{"next month", at(time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)), BucketLater},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketFor(model.Task{DueDate: tt.due}, wednesday))
		})
	}
}

func TestBucketFor_SaturdayTomorrowIsNotThisWeek(t *testing.T) {
	saturday := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, BucketTomorrow, BucketFor(model.Task{DueDate: &sunday}, saturday))
	assert.Equal(t, BucketLater, BucketFor(model.Task{DueDate: &monday}, saturday))
}

func TestBucketFor_UsesNowLocation(t *testing.T) {
	// 02:00 UTC on the 12th is still the evening of the 11th at UTC-5.
	loc := time.FixedZone("EST", -5*60*60)
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, loc)
	due := time.Date(2026, 3, 12, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, BucketToday, BucketFor(model.Task{DueDate: &due}, now))
}

func TestGroupTasks_PartitionsAndOmitsEmpty(t *testing.T) {
	tasks := []model.Task{
		{Title: "someday"},
		{Title: "late", DueDate: at(wednesday.AddDate(0, 0, -2))},
		{Title: "soon", DueDate: at(wednesday.Add(time.Hour))},
		{Title: "also late", DueDate: at(wednesday.AddDate(0, 0, -1))},
	}

	groups := GroupTasks(tasks, wednesday)
	require.Len(t, groups, 3)

	assert.Equal(t, BucketOverdue, groups[0].Bucket)
	assert.Equal(t, []string{"late", "also late"}, titles(groups[0].Tasks))
	assert.Equal(t, BucketToday, groups[1].Bucket)
	assert.Equal(t, []string{"soon"}, titles(groups[1].Tasks))
	assert.Equal(t, BucketNoDueDate, groups[2].Bucket)

	total := 0
	for _, g := range groups {
		total += len(g.Tasks)
	}
	assert.Equal(t, len(tasks), total)
}

func TestGroupTasks_Empty(t *testing.T) {
	assert.Empty(t, GroupTasks(nil, wednesday))
}

func TestBucketTitle(t *testing.T) {
	assert.Equal(t, "This Week", BucketThisWeek.Title())
	assert.Equal(t, "No Due Date", BucketNoDueDate.Title())
}
