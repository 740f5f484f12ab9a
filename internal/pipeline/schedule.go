package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// IsDue reports whether a batch scheduled by cronSpec should run at now, given
// the time of the last run. A nil last run is always due. "@daily" and "@hourly"
// are interval based; anything else is a cron expression.
func IsDue(cronSpec string, last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	switch cronSpec {
	case "@daily":
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return now.Sub(*last) >= time.Hour
	}
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		return now.Sub(*last) >= 24*time.Hour
	}
	next := expr.Next(*last)
	return !next.IsZero() && !next.After(now)
}

// Job is one scheduled batch.
type Job func(ctx context.Context) error

// RunScheduled runs job at every tick of cronSpec until ctx ends. Runs never
// overlap; a failed run is logged and the schedule continues. When runNow is set
// the first run happens immediately.
func RunScheduled(ctx context.Context, cronSpec string, runNow bool, job Job, logger *log.Logger) error {
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", cronSpec, err)
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	if runNow {
		runJob(ctx, job, logger)
	}
	for {
		next := expr.Next(time.Now())
		if next.IsZero() {
			return fmt.Errorf("schedule %q has no future runs", cronSpec)
		}
		logger.Printf("next batch at %s", next.Format(time.RFC3339))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			runJob(ctx, job, logger)
		}
	}
}

func runJob(ctx context.Context, job Job, logger *log.Logger) {
	start := time.Now()
	if err := job(ctx); err != nil {
		logger.Printf("batch failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return
	}
	logger.Printf("batch finished in %s", time.Since(start).Round(time.Millisecond))
}
