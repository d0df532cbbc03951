package runner

import (
	"time"
)

// Task is a function run periodically by the Scheduler.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func()
}

type scheduledTask struct {
	Task
	next time.Time
}

// Scheduler runs due tasks when Execute is called. It never spawns goroutines;
// tasks run on the caller's goroutine.
type Scheduler struct {
	tasks []*scheduledTask
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers t. Its first run is due one full interval after now.
func (s *Scheduler) Add(t Task, now time.Time) {
	s.tasks = append(s.tasks, &scheduledTask{Task: t, next: now.Add(t.Interval)})
}

// Execute runs every task whose due time is not after now and returns how many
// ran. Missed intervals are not caught up.
func (s *Scheduler) Execute(now time.Time) int {
	ran := 0
	for _, t := range s.tasks {
		if now.Before(t.next) {
			continue
		}
		t.Run()
		t.next = now.Add(t.Interval)
		ran++
	}
	return ran
}

// Next returns the earliest due time, or the zero time with no tasks.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, t := range s.tasks {
		if next.IsZero() || t.next.Before(next) {
			next = t.next
		}
	}
	return next
}
