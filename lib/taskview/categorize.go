// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package taskview

import (
	"slices"
	"time"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// UpcomingWindow is how far past today the upcoming bucket reaches.
const UpcomingWindow = 7 * 24 * time.Hour

// Categorize partitions the viewer's visible effective tasks into the
// three active buckets, evaluated against now. Tasks whose shared
// list status is not live, or that are effectively done, are skipped
// entirely: completed tasks belong to the separate paginated feed,
// never to these buckets.
//
// Bucket boundaries, evaluated in order so membership is exclusive by
// construction:
//
//   - overdue: has an end date strictly before now
//   - today: end date within [start of today, end of today] and not
//     yet passed
//   - upcoming (dated): end date after today, up to the end of the
//     day seven days out
//   - upcoming (undated): no end date; appended after the dated
//     entries
//
// Dated buckets ascend by effective end date. Undated upcoming tasks
// sort by priority rank descending, newest first on ties.
func Categorize(now time.Time, tasks []task.EffectiveTask) task.Buckets {
	buckets := task.Buckets{
		Overdue:  []task.EffectiveTask{},
		Today:    []task.EffectiveTask{},
		Upcoming: []task.EffectiveTask{},
	}

	dayEnd := endOfDay(now)
	horizon := endOfDay(now.Add(UpcomingWindow))

	var undated []task.EffectiveTask
	for _, t := range tasks {
		if !t.Canonical.Live() || t.Done {
			continue
		}
		buckets.TotalActiveTasks++

		if t.EndDate == nil {
			undated = append(undated, t)
			continue
		}
		due := *t.EndDate
		switch {
		case due.Before(now):
			buckets.Overdue = append(buckets.Overdue, t)
		case !due.After(dayEnd):
			buckets.Today = append(buckets.Today, t)
		case !due.After(horizon):
			buckets.Upcoming = append(buckets.Upcoming, t)
		default:
			// Beyond the window: live and counted, not shown.
		}
	}

	sortByDueDate(buckets.Overdue)
	sortByDueDate(buckets.Today)
	sortByDueDate(buckets.Upcoming)

	slices.SortFunc(undated, func(a, b task.EffectiveTask) int {
		if d := b.Priority.Rank() - a.Priority.Rank(); d != 0 {
			return d
		}
		return b.Canonical.CreatedAt.Compare(a.Canonical.CreatedAt)
	})
	buckets.Upcoming = append(buckets.Upcoming, undated...)

	return buckets
}

func sortByDueDate(tasks []task.EffectiveTask) {
	slices.SortFunc(tasks, func(a, b task.EffectiveTask) int {
		return a.EndDate.Compare(*b.EndDate)
	})
}

// endOfDay returns the last nanosecond of the calendar day containing
// t, in t's location.
func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
