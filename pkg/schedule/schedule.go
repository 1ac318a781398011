package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule defines when a queue should run next.
type Schedule interface {
	Next(from time.Time) time.Time
}

// everySchedule runs at fixed intervals.
type everySchedule struct {
	interval time.Duration
}

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return &everySchedule{interval: d}
}

func (s *everySchedule) Next(from time.Time) time.Time {
	return from.Add(s.interval)
}

// Interval returns the fixed interval of s, or zero if s is not an Every schedule.
func Interval(s Schedule) time.Duration {
	if e, ok := s.(*everySchedule); ok {
		return e.interval
	}
	return 0
}

// dailySchedule runs at a specific time each day.
type dailySchedule struct {
	hour   int
	minute int
	loc    *time.Location
}

// Daily creates a schedule that runs at a specific time each day (UTC).
func Daily(hour, minute int) Schedule {
	return &dailySchedule{hour: hour, minute: minute, loc: time.UTC}
}

func (s *dailySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// weeklySchedule runs at a specific day and time each week.
type weeklySchedule struct {
	day    time.Weekday
	hour   int
	minute int
	loc    *time.Location
}

// Weekly creates a schedule that runs at a specific day and time each week (UTC).
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return &weeklySchedule{day: day, hour: hour, minute: minute, loc: time.UTC}
}

func (s *weeklySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)

	daysUntil := int(s.day - from.Weekday())
	if daysUntil < 0 {
		daysUntil += 7
	}

	next := time.Date(from.Year(), from.Month(), from.Day()+daysUntil, s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// cronSchedule wraps a cron expression.
type cronSchedule struct {
	schedule cron.Schedule
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron parses a five-field cron expression (or a descriptor such as
// "@hourly" or "@every 5s").
func ParseCron(expr string) (Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid cron expression %q: %w", expr, err)
	}
	return &cronSchedule{schedule: sched}, nil
}

// Cron creates a schedule from a cron expression. It panics on an invalid
// expression; use ParseCron to handle the error.
func Cron(expr string) Schedule {
	s, err := ParseCron(expr)
	if err != nil {
		panic(err.Error())
	}
	return s
}

func (s *cronSchedule) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}
