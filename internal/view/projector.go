package view

import (
	"cmp"
	"slices"
	"strings"

	"taskKeeper/internal/models/task"
)

type SortOption string

const SortPriority SortOption = "Priority"
const SortDate SortOption = "Date"
const SortCompleted SortOption = "Completed"

// ParseSortOption is case-insensitive; anything unrecognised sorts like Completed.
func ParseSortOption(s string) SortOption {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "priority":
		return SortPriority
	case "date":
		return SortDate
	default:
		return SortCompleted
	}
}

// Project returns the filtered and stably sorted view of tasks. The input
// slice and its tasks are never modified.
func Project(tasks []task.Task, sortOption SortOption, showStarredOnly bool) []task.Task {
	res := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if showStarredOnly && !t.Starred {
			continue
		}
		res = append(res, t.Clone())
	}

	slices.SortStableFunc(res, comparator(sortOption))
	return res
}

func comparator(sortOption SortOption) func(a, b task.Task) int {
	switch sortOption {
	case SortPriority:
		return func(a, b task.Task) int {
			return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
		}
	case SortDate:
		return compareDueDate
	default:
		return func(a, b task.Task) int {
			return cmp.Compare(boolRank(a.Completed), boolRank(b.Completed))
		}
	}
}

// compareDueDate orders by the calendar day of the due date alone; any time
// of day it carries is ignored. Undated tasks go last.
func compareDueDate(a, b task.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	ay, am, ad := a.DueDate.Date()
	by, bm, bd := b.DueDate.Date()
	if c := cmp.Compare(ay, by); c != 0 {
		return c
	}
	if c := cmp.Compare(am, bm); c != 0 {
		return c
	}
	return cmp.Compare(ad, bd)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
