package domain

import (
	"sort"
	"strings"
	"time"
)

// DashboardStats summarizes the board for the dashboard view.
type DashboardStats struct {
	Total          int `json:"total"`
	ToDo           int `json:"todo"`
	InProgress     int `json:"inProgress"`
	Done           int `json:"done"`
	Overdue        int `json:"overdue"`
	Upcoming       int `json:"upcoming"`
	CompletionRate int `json:"completionRate"`
}

// ComputeDashboardStats derives board statistics from the task collection.
// A task is overdue when its due date is in the past and it is not done,
// and upcoming when it is due within the next seven days.
func ComputeDashboardStats(tasks []Task, now time.Time) DashboardStats {
	var stats DashboardStats
	stats.Total = len(tasks)
	for _, t := range tasks {
		switch t.Status {
		case StatusToDo:
			stats.ToDo++
		case StatusInProgress:
			stats.InProgress++
		case StatusDone:
			stats.Done++
		}
		if isOverdue(t, now) {
			stats.Overdue++
		}
		if isUpcoming(t, now) {
			stats.Upcoming++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(float64(stats.Done)/float64(stats.Total)*100 + 0.5)
	}
	return stats
}

// OverdueTasks returns unfinished tasks past their due date, earliest first.
func OverdueTasks(tasks []Task, now time.Time) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if isOverdue(t, now) {
			out = append(out, t)
		}
	}
	sortByDueDate(out)
	return out
}

// UpcomingTasks returns unfinished tasks due within the next seven days,
// earliest first.
func UpcomingTasks(tasks []Task, now time.Time) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if isUpcoming(t, now) {
			out = append(out, t)
		}
	}
	sortByDueDate(out)
	return out
}

// GroupByDueDay buckets tasks by the calendar day of their due date for the
// calendar view. Keys use the YYYY-MM-DD form; tasks without a due date are
// omitted.
func GroupByDueDay(tasks []Task) map[string][]Task {
	out := make(map[string][]Task)
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		day := t.DueDate.Format("2006-01-02")
		out[day] = append(out[day], t)
	}
	return out
}

// FilterTasks narrows the collection by priority and a case-insensitive
// title/description substring query. A nil priority or empty query matches
// everything.
func FilterTasks(tasks []Task, priority *Priority, query string) []Task {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if priority != nil && t.Priority != *priority {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isOverdue(t Task, now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusDone
}

func isUpcoming(t Task, now time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	due := *t.DueDate
	return due.After(now) && !due.After(now.AddDate(0, 0, 7))
}

func sortByDueDate(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(*tasks[j].DueDate)
	})
}
