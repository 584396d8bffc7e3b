// Package scheduler turns each user's schedule policy into a recurring
// trigger that enqueues a scheduling tick through the job queue.
package scheduler

import (
	"errors"
	"fmt"
)

// Trigger validation errors
var (
	ErrInvalidTriggerDay    = errors.New("trigger day of week must be between 0 and 6")
	ErrInvalidTriggerHour   = errors.New("trigger hour must be between 0 and 23")
	ErrInvalidTriggerMinute = errors.New("trigger minute must be between 0 and 59")
)

// TriggerSpec is the backend-agnostic description of one weekly recurring
// trigger: fire at Hour:Minute every week on DayOfWeek (0 = Sunday).
// Keeping this a value type decouples the domain model from any one
// scheduler backend's string syntax.
type TriggerSpec struct {
	Minute    int `json:"minute"`
	Hour      int `json:"hour"`
	DayOfWeek int `json:"day_of_week"`
}

// Validate checks the trigger's field ranges.
func (s TriggerSpec) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return ErrInvalidTriggerDay
	}
	if s.Hour < 0 || s.Hour > 23 {
		return ErrInvalidTriggerHour
	}
	if s.Minute < 0 || s.Minute > 59 {
		return ErrInvalidTriggerMinute
	}
	return nil
}

// CronExpr translates the trigger into the cron backend's native
// five-field format: "minute hour * * dayOfWeek".
func (s TriggerSpec) CronExpr() string {
	return fmt.Sprintf("%d %d * * %d", s.Minute, s.Hour, s.DayOfWeek)
}
