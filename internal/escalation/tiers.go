package escalation

import (
	"time"

	"github.com/shopspring/decimal"

	"go-permit/internal/request"
)

// Escalation tiers, ordered. A request's mark only moves forward through
// its track; HALF_DAY_2 and OVERDUE_DAY are terminal.
const (
	TierHalfDay1    = "HALF_DAY_1"
	TierHalfDay2    = "HALF_DAY_2"
	TierOverdueTime = "OVERDUE_TIME"
	TierOverdueDay  = "OVERDUE_DAY"
)

// Threshold clock times, applied to the request's start date.
const (
	halfDayArmHour, halfDayArmMinute = 8, 31
	halfDay1Hour, halfDay1Minute     = 11, 30
	halfDay2Hour, halfDay2Minute     = 14, 30
	overdueTimeHour                  = 18
	overdueDayHour                   = 5
)

// NextTier decides which escalation, if any, is due for an approved
// permission request without a check-in.
//
// The half-day track only arms when approval happened before 08:31 on the
// start date; later approvals never escalate. The full-day track fires
// OVERDUE_TIME after 18:00 on the start date and OVERDUE_DAY after 05:00 the
// next day.
func NextTier(
	duration decimal.Decimal,
	approvedAt *time.Time,
	startDate time.Time,
	mark *string,
	now time.Time,
) (string, bool) {
	current := ""
	if mark != nil {
		current = *mark
	}

	if request.IsHalfDay(duration) {
		if approvedAt == nil || !approvedAt.Before(at(startDate, halfDayArmHour, halfDayArmMinute)) {
			return "", false
		}

		switch current {
		case "":
			if now.After(at(startDate, halfDay1Hour, halfDay1Minute)) {
				return TierHalfDay1, true
			}
		case TierHalfDay1:
			if now.After(at(startDate, halfDay2Hour, halfDay2Minute)) {
				return TierHalfDay2, true
			}
		}
		return "", false
	}

	// The evening tier always goes out first: an unmarked row seen after the
	// next-day threshold still emits OVERDUE_TIME, and the day tier follows
	// on a later sweep.
	switch current {
	case "":
		if now.After(at(startDate, overdueTimeHour, 0)) {
			return TierOverdueTime, true
		}
	case TierOverdueTime:
		if now.After(at(startDate.AddDate(0, 0, 1), overdueDayHour, 0)) {
			return TierOverdueDay, true
		}
	}
	return "", false
}

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}
