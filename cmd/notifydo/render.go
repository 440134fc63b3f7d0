package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/notifydo/internal/client/session"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/organizer"
)

const shortIDLen = 8

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	overdueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}
)

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func taskLine(t model.Task) string {
	box, title := "[ ]", t.Title
	if t.Completed {
		box, title = "[x]", doneStyle.Render(t.Title)
	}

	parts := []string{box, mutedStyle.Render(shortID(t.ID)), title}
	if style, ok := priorityStyles[t.Priority]; ok {
		parts = append(parts, style.Render(string(t.Priority)))
	}
	if t.DueDate != nil {
		parts = append(parts, mutedStyle.Render("due "+t.DueDate.Local().Format("Mon Jan 2 15:04")))
	}
	for _, tag := range t.Tags {
		parts = append(parts, tagStyle.Render("#"+tag))
	}
	return strings.Join(parts, " ")
}

func renderList(w io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks."))
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, taskLine(t))
	}
}

func renderGroups(w io.Writer, groups []organizer.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks."))
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		style := headerStyle
		if g.Bucket == organizer.BucketOverdue {
			style = overdueStyle
		}
		fmt.Fprintln(w, style.Render(fmt.Sprintf("%s (%d)", g.Bucket.Title(), len(g.Tasks))))
		for _, t := range g.Tasks {
			fmt.Fprintln(w, "  "+taskLine(t))
		}
	}
}

func renderFooter(w io.Writer, remaining, hidden int) {
	noun := "tasks"
	if remaining == 1 {
		noun = "task"
	}
	line := fmt.Sprintf("%d %s remaining", remaining, noun)
	if hidden > 0 {
		line += fmt.Sprintf(", %d hidden", hidden)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, mutedStyle.Render(line))
}

func renderDay(w io.Writer, heading string, tasks []model.Task) {
	fmt.Fprintln(w, headerStyle.Render(heading))
	if len(tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Nothing due."))
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, "  "+taskLine(t))
	}
}

// renderCalendar prints every day that has something due, earliest first.
func renderCalendar(w io.Writer, days map[string][]model.Task) {
	if len(days) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No dated tasks."))
		return
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for i, k := range keys {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading := k
		if day, err := time.ParseInLocation(organizer.DayLayout, k, time.Local); err == nil {
			heading = day.Format("Mon Jan 2 2006")
		}
		renderDay(w, heading, organizer.Sort(days[k], organizer.SortByDueDate))
	}
}

func renderDetail(w io.Writer, t model.Task) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", mutedStyle.Render(fmt.Sprintf("%-12s", label)), value)
	}

	fmt.Fprintln(w, titleStyle.Render(t.Title))
	row("id", t.ID)
	if t.Description != "" {
		row("description", t.Description)
	}
	status := "open"
	if t.Completed {
		status = "completed"
	}
	row("status", status)
	row("priority", string(t.Priority))
	due := "none"
	if t.DueDate != nil {
		due = t.DueDate.Local().Format("Mon Jan 2 2006 15:04")
	}
	row("due", due)
	if len(t.Tags) > 0 {
		row("tags", strings.Join(t.Tags, ", "))
	}
	row("created", t.CreatedAt.Local().Format(time.DateTime))
	row("updated", t.UpdatedAt.Local().Format(time.DateTime))
}

// printNotifier shows session notifications as single styled lines.
type printNotifier struct {
	w io.Writer
}

func (p printNotifier) Notify(n session.Notification) {
	style := infoStyle
	switch n.Level {
	case session.LevelSuccess:
		style = successStyle
	case session.LevelError:
		style = errorStyle
	}

	line := style.Render(n.Title)
	if n.Message != "" {
		line += ": " + n.Message
	}
	fmt.Fprintln(p.w, line)
}
