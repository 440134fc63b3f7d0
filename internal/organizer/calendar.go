package organizer

import (
	"time"

	"github.com/sakif/notifydo/internal/model"
)

// DayLayout is the key format used by ByDay.
const DayLayout = "2006-01-02"

// ByDay indexes dated tasks by their due day (YYYY-MM-DD) in loc.
// Undated tasks are skipped.
func ByDay(tasks []model.Task, loc *time.Location) map[string][]model.Task {
	days := make(map[string][]model.Task)
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		key := t.DueDate.In(loc).Format(DayLayout)
		days[key] = append(days[key], t)
	}
	return days
}

// OnDay returns the tasks due on day's calendar date, in day's location.
func OnDay(tasks []model.Task, day time.Time) []model.Task {
	return ByDay(tasks, day.Location())[day.Format(DayLayout)]
}
