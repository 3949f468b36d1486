package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts the scheduler's five field format, minute through
// weekday, with no descriptors.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression
// ("minute hour day month weekday") with the same parser the scheduler
// uses, so anything accepted here will also be accepted at run time.
//
//	ValidateCronSchedule("30 5 * * *")  // daily at 05:30
//	ValidateCronSchedule("0 */6 * * *") // every six hours
func ValidateCronSchedule(expr string) error {
	if expr == "" {
		return errors.New("invalid cron schedule: cannot be empty")
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", expr, err)
	}
	return nil
}

// ValidateTimezone checks an IANA timezone name ("UTC", "Asia/Tokyo") by
// loading it. Loading can fail for a correct name when the tzdata package
// is missing from the image; the wrapped error says which.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return errors.New("invalid timezone: cannot be empty")
	}
	_, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return nil
}

// ValidatePositiveDuration checks that a duration is strictly greater than
// zero. Timeouts, delays, and intervals all go through this.
func ValidatePositiveDuration(dur time.Duration) error {
	if dur <= 0 {
		return fmt.Errorf("duration must be positive (got %v)", dur)
	}
	return nil
}

// ValidateDuration checks that a duration falls within [lo, hi] inclusive.
func ValidateDuration(dur, lo, hi time.Duration) error {
	switch {
	case lo > hi:
		return fmt.Errorf("invalid range: min %v greater than max %v", lo, hi)
	case dur < lo:
		return fmt.Errorf("duration %v below minimum %v", dur, lo)
	case dur > hi:
		return fmt.Errorf("duration %v exceeds maximum allowed %v", dur, hi)
	}
	return nil
}

// ValidateIntRange checks that an integer falls within [lo, hi] inclusive.
// Used for parallelism counts, ports, and retry budgets.
func ValidateIntRange(n, lo, hi int) error {
	switch {
	case lo > hi:
		return fmt.Errorf("invalid range: min %d greater than max %d", lo, hi)
	case n < lo:
		return fmt.Errorf("value %d below minimum %d", n, lo)
	case n > hi:
		return fmt.Errorf("value %d exceeds maximum allowed %d", n, hi)
	}
	return nil
}
