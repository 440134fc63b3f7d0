package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/notifydo/internal/client/config"
	"github.com/sakif/notifydo/internal/model"
	"github.com/sakif/notifydo/internal/organizer"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your tasks",
	Long: `List your tasks.

Completed tasks are hidden unless --all is given. --search matches title,
description and tags, ignoring case. --group splits the list into
Overdue, Today, Tomorrow, This Week, Later and No Due Date.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listSearch string
	listSort   string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar [YYYY-MM-DD]",
	Short: "Show tasks by due day, or the tasks due on one day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCalendar,
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var (
	addDescription string
	addDue         string
	addPriority    string
	addTags        []string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a task",
	Long: `Change fields of a task. Only the flags you pass are sent.

--due none clears the due date; --tags "" clears the tags.`,
	Aliases: []string{"update"},
	Args:    cobra.ExactArgs(1),
	RunE:    runEdit,
}

var (
	editTitle       string
	editDescription string
	editDue         string
	editPriority    string
	editTags        []string
	editCompleted   bool
)

var doneCmd = &cobra.Command{
	Use:   "done <id>...",
	Short: "Mark tasks as completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setCompleted(cmd, args, true) },
}

var undoneCmd = &cobra.Command{
	Use:     "undone <id>...",
	Aliases: []string{"reopen"},
	Short:   "Mark tasks as not completed",
	Args:    cobra.MinimumNArgs(1),
	RunE:    func(cmd *cobra.Command, args []string) error { return setCompleted(cmd, args, false) },
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a task between open and completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runToggle,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete tasks permanently",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show every field of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "only tasks matching this text")
	listCmd.Flags().BoolP("all", "a", false, "include completed tasks")
	listCmd.Flags().StringVar(&listSort, "sort", "", "dueDate, priority or createdAt")
	listCmd.Flags().BoolP("group", "g", false, "group by due date")

	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "longer description")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date: YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "low, medium or high (default medium)")
	addCmd.Flags().StringSliceVarP(&addTags, "tags", "t", nil, "comma-separated tags")

	bindEditFlags(editCmd)

	rootCmd.AddCommand(listCmd, calendarCmd, addCmd, editCmd, doneCmd, undoneCmd, toggleCmd, rmCmd, showCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := signedIn()
	if err != nil {
		return err
	}

	sortName := a.cfg.View.Sort
	if listSort != "" {
		sortName = listSort
	}
	key, err := organizer.ParseSortKey(sortName)
	if err != nil {
		return err
	}
	showCompleted, grouped := listView(cmd, a.cfg.View)

	if !a.session.TasksLoaded() {
		if err := a.session.Refresh(contextOf(cmd)); err != nil {
			return reported(err)
		}
	}
	all := a.session.Tasks()
	tasks := organizer.Sort(organizer.Filter(all, listSearch, showCompleted), key)

	out := cmd.OutOrStdout()
	if grouped {
		renderGroups(out, organizer.GroupTasks(tasks, time.Now()))
	} else {
		renderList(out, tasks)
	}
	renderFooter(out, organizer.Remaining(all), len(all)-len(tasks))
	return nil
}

// listView applies --all and --group over the configured defaults. A flag
// given explicitly wins either way, so --all=false hides completed tasks
// even when the config shows them.
func listView(cmd *cobra.Command, view config.View) (showCompleted, grouped bool) {
	showCompleted, grouped = view.ShowCompleted, view.Grouped
	if cmd.Flags().Changed("all") {
		showCompleted, _ = cmd.Flags().GetBool("all")
	}
	if cmd.Flags().Changed("group") {
		grouped, _ = cmd.Flags().GetBool("group")
	}
	return showCompleted, grouped
}

func runCalendar(cmd *cobra.Command, args []string) error {
	a, err := signedIn()
	if err != nil {
		return err
	}
	if !a.session.TasksLoaded() {
		if err := a.session.Refresh(contextOf(cmd)); err != nil {
			return reported(err)
		}
	}
	tasks := a.session.Tasks()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		day, err := time.ParseInLocation(organizer.DayLayout, args[0], time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: want YYYY-MM-DD", args[0])
		}
		renderDay(out, day.Format("Monday, Jan 2 2006"), organizer.Sort(organizer.OnDay(tasks, day), organizer.SortByDueDate))
		return nil
	}

	renderCalendar(out, organizer.ByDay(tasks, time.Local))
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := signedIn()
	if err != nil {
		return err
	}

	in := model.TaskInput{
		Title:       strings.Join(args, " "),
		Description: addDescription,
		Priority:    model.Priority(strings.ToLower(addPriority)),
		Tags:        addTags,
	}
	if addDue != "" {
		due, err := parseDue(addDue, time.Local)
		if err != nil {
			return err
		}
		in.DueDate = due
	}

	task, err := a.session.CreateTask(contextOf(cmd), in)
	if err != nil {
		return reported(err)
	}
	renderList(cmd.OutOrStdout(), []model.Task{*task})
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := signedIn()
	if err != nil {
		return err
	}
	id, err := resolveID(a.session.Tasks(), args[0])
	if err != nil {
		return err
	}

	patch, err := editPatch(cmd, time.Local)
	if err != nil {
		return err
	}
	if patch.Empty() {
		return errors.New("nothing to change; pass at least one of --title, --description, --due, --priority, --tags, --completed")
	}

	task, err := a.session.UpdateTask(contextOf(cmd), id, patch)
	if err != nil {
		return reported(err)
	}
	renderList(cmd.OutOrStdout(), []model.Task{*task})
	return nil
}

func bindEditFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&editTitle, "title", "", "new title")
	cmd.Flags().StringVarP(&editDescription, "description", "d", "", "new description")
	cmd.Flags().StringVar(&editDue, "due", "", "new due date, or \"none\"")
	cmd.Flags().StringVarP(&editPriority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringSliceVarP(&editTags, "tags", "t", nil, "replace tags")
	cmd.Flags().BoolVar(&editCompleted, "completed", false, "set the completed flag")
}

// editPatch turns the flags the user actually passed into a TaskPatch.
func editPatch(cmd *cobra.Command, loc *time.Location) (model.TaskPatch, error) {
	var patch model.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		patch.Title = &editTitle
	}
	if flags.Changed("description") {
		patch.Description = &editDescription
	}
	if flags.Changed("completed") {
		patch.Completed = &editCompleted
	}
	if flags.Changed("priority") {
		p := model.Priority(strings.ToLower(editPriority))
		patch.Priority = &p
	}
	if flags.Changed("tags") {
		tags := make([]string, 0, len(editTags))
		for _, t := range editTags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		patch.Tags = &tags
	}
	if flags.Changed("due") {
		if strings.EqualFold(editDue, "none") {
			patch.DueDate = model.ClearTime()
		} else {
			due, err := parseDue(editDue, loc)
			if err != nil {
				return model.TaskPatch{}, err
			}
			patch.DueDate = model.SetTime(*due)
		}
	}
	return patch, nil
}

func setCompleted(cmd *cobra.Command, args []string, completed bool) error {
	a, err := signedIn()
	if err != nil {
		return err
	}
	for _, arg := range args {
		id, err := resolveID(a.session.Tasks(), arg)
		if err != nil {
			return err
		}
		if _, err := a.session.SetCompleted(contextOf(cmd), id, completed); err != nil {
			return reported(err)
		}
	}
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	a, err := signedIn()
	if err != nil {
		return err
	}
	id, err := resolveID(a.session.Tasks(), args[0])
	if err != nil {
		return err
	}
	_, err = a.session.ToggleTask(contextOf(cmd), id)
	return reported(err)
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := signedIn()
	if err != nil {
		return err
	}
	for _, arg := range args {
		id, err := resolveID(a.session.Tasks(), arg)
		if err != nil {
			return err
		}
		if err := a.session.DeleteTask(contextOf(cmd), id); err != nil {
			return reported(err)
		}
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := signedIn()
	if err != nil {
		return err
	}
	id, err := resolveID(a.session.Tasks(), args[0])
	if err != nil {
		return err
	}

	// Fetch rather than read the cache so the detail view is current.
	task, err := a.client.GetTask(contextOf(cmd), id)
	if err != nil {
		return err
	}
	renderDetail(cmd.OutOrStdout(), *task)
	return nil
}

// resolveID accepts a full task id or a unique prefix of one.
func resolveID(tasks []model.Task, arg string) (string, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if arg == "" {
		return "", errors.New("empty task id")
	}

	var matches []string
	for _, t := range tasks {
		id := strings.ToLower(t.ID)
		if id == arg {
			return t.ID, nil
		}
		if strings.HasPrefix(id, arg) {
			matches = append(matches, t.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task matches %q", arg)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("%q is ambiguous (%d tasks match); type more of the id", arg, len(matches))
}

var dueLayouts = []string{
	organizer.DayLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// parseDue reads a due date in loc. A bare date means the end of that day,
// so a task due "today" is not already overdue.
func parseDue(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	for _, layout := range dueLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if layout == organizer.DayLayout {
			y, m, d := t.Date()
			t = time.Date(y, m, d, 23, 59, 0, 0, loc)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("invalid due date %q: want YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339", s)
}
