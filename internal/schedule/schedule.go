// Package schedule runs a job at fixed times of day.
package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time in hours and minutes
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimes reads a comma separated list of HH:MM times, sorted and
// deduplicated.
func ParseTimes(value string) ([]TimeOfDay, error) {
	seen := make(map[TimeOfDay]bool)
	var times []TimeOfDay

	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := parseClock(part)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			times = append(times, t)
		}
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("no run times in %q", value)
	}

	sort.Slice(times, func(i, j int) bool {
		if times[i].Hour != times[j].Hour {
			return times[i].Hour < times[j].Hour
		}
		return times[i].Minute < times[j].Minute
	})
	return times, nil
}

func parseClock(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time format: %s (expected HH:MM)", s)
	}
	hour, errH := strconv.Atoi(h)
	minute, errM := strconv.Atoi(m)
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time format: %s (expected HH:MM)", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// NextRun returns the earliest run time strictly after now, in now's location
func NextRun(now time.Time, times []TimeOfDay) time.Time {
	var next time.Time
	for _, t := range times {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// Daily runs a job at each configured time of day. Runs never overlap: a
// run that overshoots the next slot delays it.
type Daily struct {
	times  []TimeOfDay
	job    Job
	logger *slog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewDaily creates a daily schedule. A nil logger discards output.
func NewDaily(times []TimeOfDay, job Job, logger *slog.Logger) *Daily {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Daily{
		times:  times,
		job:    job,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}
}

// Run blocks until ctx is cancelled. Job errors are logged and do not stop
// the schedule.
func (d *Daily) Run(ctx context.Context) error {
	for {
		next := NextRun(d.now(), d.times)
		d.logger.Info("Next report run scheduled", "at", next.Format("2006-01-02 15:04:05"))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.after(next.Sub(d.now())):
		}

		d.logger.Info("Running scheduled report")
		if err := d.job(ctx); err != nil {
			d.logger.Error("Scheduled report failed", "error", err)
			continue
		}
		d.logger.Info("Scheduled report complete")
	}
}
