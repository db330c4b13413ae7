package host

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/actorkit/fsm"
)

// Scheduler wraps time.AfterFunc/time.Ticker to satisfy fsm.Scheduler, plus an extra
// CronRepeating helper built on robfig/cron/v3's parser for host-level periodic work
// (e.g. cmd/fsmdemo's periodic state-snapshot logging) that has nothing to do with the
// fsm's own named timers.
type Scheduler struct{}

// NewScheduler constructs a Scheduler. It is stateless; every call schedules its own
// independent timer or ticker.
func NewScheduler() *Scheduler { return &Scheduler{} }

// ScheduleOnce runs task once after delay, returning a CancelFunc that stops it if it
// hasn't fired yet.
func (s *Scheduler) ScheduleOnce(delay time.Duration, task func()) fsm.CancelFunc {
	t := time.AfterFunc(delay, task)
	return func() { t.Stop() }
}

// ScheduleRepeating runs task once after initial, then every interval thereafter, until
// canceled.
func (s *Scheduler) ScheduleRepeating(initial, interval time.Duration, task func()) fsm.CancelFunc {
	stop := make(chan struct{})
	go func() {
		timer := time.NewTimer(initial)
		defer timer.Stop()
		select {
		case <-timer.C:
			task()
		case <-stop:
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				task()
			case <-stop:
				return
			}
		}
	}()
	var closed bool
	return func() {
		if !closed {
			closed = true
			close(stop)
		}
	}
}

// CronRepeating schedules task on a robfig/cron/v3 standard 5-field schedule, used by
// hosts wiring periodic housekeeping (not by the fsm package itself, which only ever asks
// for ScheduleOnce/ScheduleRepeating).
func CronRepeating(spec string, task func()) (fsm.CancelFunc, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, task)
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
