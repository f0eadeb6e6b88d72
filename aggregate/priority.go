package aggregate

import (
	"math"
	"time"
)

// Deadline status of an order.
const (
	TimeOverdue = "OVERDUE"
	TimeAtRisk  = "AT_RISK"
	TimeOnTime  = "ON_TIME"
	TimeUnknown = "UNKNOWN"
)

const (
	atRiskMinutes       = 24 * 60
	highPriorityMinutes = 4 * 60
	lowPriorityMinutes  = 72 * 60
	tightSlackMinutes   = 60
)

// Priority ranks an order against its delivery date: 1 urgent, 2 high,
// 3 normal, 4 low.
type Priority struct {
	TimeToDeadlineMinutes *int   `json:"timeToDeadlineMinutes"`
	SlackMinutes          *int   `json:"slackMinutes"`
	TimeStatus            string `json:"timeStatus"`
	Priority              int    `json:"priority"`
}

func TimePriority(deliveryDate *time.Time, estimatedMinutes int, now time.Time) Priority {
	if deliveryDate == nil || deliveryDate.IsZero() {
		return Priority{TimeStatus: TimeUnknown, Priority: 3}
	}
	if estimatedMinutes < 0 {
		estimatedMinutes = 0
	}
	toDeadline := int(math.Floor(deliveryDate.Sub(now).Minutes()))
	slack := toDeadline - estimatedMinutes

	p := Priority{TimeToDeadlineMinutes: &toDeadline, SlackMinutes: &slack}
	switch {
	case toDeadline < 0:
		p.TimeStatus = TimeOverdue
	case toDeadline <= atRiskMinutes || slack <= 0:
		p.TimeStatus = TimeAtRisk
	default:
		p.TimeStatus = TimeOnTime
	}

	switch {
	case p.TimeStatus == TimeOverdue:
		p.Priority = 1
	case p.TimeStatus == TimeAtRisk && (toDeadline <= highPriorityMinutes || slack <= tightSlackMinutes):
		p.Priority = 2
	case p.TimeStatus == TimeOnTime && toDeadline > lowPriorityMinutes && slack > 2*estimatedMinutes:
		p.Priority = 4
	default:
		p.Priority = 3
	}
	return p
}
