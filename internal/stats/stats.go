// Package stats computes compliance statistics over recorded reminder
// outcomes. Everything here is a pure read-side function.
package stats

import (
	"sort"
	"time"

	"github.com/shiftwell/shiftwell/internal/domain"
)

// CompletionRate returns the completed percentage over all records,
// 0 for an empty set.
func CompletionRate(records []domain.ReminderRecord) float64 {
	return rate(records)
}

// CompletionRateBetween filters to records scheduled within [from, to]
// inclusive before computing the rate.
func CompletionRateBetween(records []domain.ReminderRecord, from, to time.Time) float64 {
	var filtered []domain.ReminderRecord
	for _, r := range records {
		if r.ScheduledAt.Before(from) || r.ScheduledAt.After(to) {
			continue
		}
		filtered = append(filtered, r)
	}
	return rate(filtered)
}

func rate(records []domain.ReminderRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	completed := 0
	for _, r := range records {
		if r.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(records)) * 100
}

// DayStat is one day of the daily breakdown.
type DayStat struct {
	Date      time.Time
	Completed int
	Total     int
	Rate      float64
}

// DailyBreakdown returns per-day stats for the last days calendar days
// including today, oldest first. Day matching uses calendar-day
// equality on the scheduled time in now's location.
func DailyBreakdown(records []domain.ReminderRecord, days int, now time.Time) []DayStat {
	var out []DayStat
	for offset := -days + 1; offset <= 0; offset++ {
		day := domain.StartOfDay(now).AddDate(0, 0, offset)
		stat := DayStat{Date: day}
		for _, r := range records {
			if !domain.SameDay(day, r.ScheduledAt) {
				continue
			}
			stat.Total++
			if r.Completed {
				stat.Completed++
			}
		}
		if stat.Total > 0 {
			stat.Rate = float64(stat.Completed) / float64(stat.Total) * 100
		}
		out = append(out, stat)
	}
	return out
}

// AverageDelayMinutes is the mean acknowledgement delay over completed
// records that have one, 0 when there are none.
func AverageDelayMinutes(records []domain.ReminderRecord) int {
	total, count := 0, 0
	for _, r := range records {
		if !r.Completed {
			continue
		}
		if delay, ok := r.DelayMinutes(); ok {
			total += delay
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / count
}

// BestHour returns the hour of day (0-23) with the highest completion
// rate among hours that have at least one record. Ties resolve to the
// earliest hour. ok is false when there are no records at all.
func BestHour(records []domain.ReminderRecord) (hour int, ok bool) {
	type bucket struct{ completed, total int }
	buckets := make(map[int]*bucket)
	for _, r := range records {
		h := r.ScheduledAt.Hour()
		b := buckets[h]
		if b == nil {
			b = &bucket{}
			buckets[h] = b
		}
		b.total++
		if r.Completed {
			b.completed++
		}
	}
	if len(buckets) == 0 {
		return 0, false
	}

	best, bestRate := -1, -1.0
	for h := 0; h < 24; h++ {
		b, present := buckets[h]
		if !present {
			continue
		}
		r := float64(b.completed) / float64(b.total)
		if r > bestRate {
			best, bestRate = h, r
		}
	}
	return best, true
}

// PurposeStat is the completion breakdown of one alarm purpose.
type PurposeStat struct {
	Purpose   domain.Purpose
	Completed int
	Total     int
	Rate      float64
}

// PurposeBreakdown joins records to alarms by alarm id and aggregates
// per purpose. Records whose alarm no longer exists are skipped.
func PurposeBreakdown(records []domain.ReminderRecord, alarms []domain.Alarm) []PurposeStat {
	purposeOf := make(map[string]domain.Purpose, len(alarms))
	for _, a := range alarms {
		purposeOf[a.ID] = a.Purpose
	}

	byPurpose := make(map[domain.Purpose]*PurposeStat)
	for _, r := range records {
		purpose, ok := purposeOf[r.AlarmID]
		if !ok {
			continue
		}
		s := byPurpose[purpose]
		if s == nil {
			s = &PurposeStat{Purpose: purpose}
			byPurpose[purpose] = s
		}
		s.Total++
		if r.Completed {
			s.Completed++
		}
	}

	out := make([]PurposeStat, 0, len(byPurpose))
	for _, s := range byPurpose {
		s.Rate = float64(s.Completed) / float64(s.Total) * 100
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out
}

// Recent returns up to limit records, newest scheduled first.
func Recent(records []domain.ReminderRecord, limit int) []domain.ReminderRecord {
	sorted := append([]domain.ReminderRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ScheduledAt.After(sorted[j].ScheduledAt) })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
