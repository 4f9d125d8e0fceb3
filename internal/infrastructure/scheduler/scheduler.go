package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Scheduler runs jobs on cron expressions with an optional leading seconds
// field. A tick that fires while the previous run of the same job is still
// going is skipped, and a panicking job is recovered and logged.
type Scheduler struct {
	cron   *cron.Cron
	logger Logger
	ctx    context.Context
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func New(loc *time.Location, logger Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Validate reports whether spec parses.
func Validate(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

func (s *Scheduler) AddJob(spec, name string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil && s.logger != nil {
			s.logger.Errorf("Scheduled job %s failed: %v", name, err)
		}
	})
	return err
}

// Next returns the next activation time across all jobs, or the zero time
// when nothing is scheduled.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		n := e.Next
		if n.IsZero() {
			n = e.Schedule.Next(time.Now().In(s.cron.Location()))
		}
		if next.IsZero() || n.Before(next) {
			next = n
		}
	}
	return next
}

func (s *Scheduler) Location() *time.Location {
	return s.cron.Location()
}

// Start begins dispatching jobs. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

// Stop stops dispatching and waits for running jobs to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// cronLogger forwards the cron library's skip and panic reports.
type cronLogger struct {
	logger Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if c.logger != nil && msg == "skip" {
		c.logger.Warnf("Skipping scheduled run: previous run still in progress")
	}
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if c.logger != nil {
		c.logger.Errorf("Scheduler %s: %v", msg, err)
	}
}
