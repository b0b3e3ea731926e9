package request

import (
	"context"
	"strings"
	"time"
)

// isDuplicate scans the whole category partition for another request by the
// same employee starting on the same day. The row being edited is excluded
// so a resubmit never collides with itself. No index is assumed: the
// partition is read in full and matched in memory.
func (s *service) isDuplicate(
	ctx context.Context,
	repo Repository,
	employeeID, category string,
	startDate time.Time,
	excludeRequestID string,
) (bool, error) {
	rows, err := repo.FindAllByCategory(ctx, category)
	if err != nil {
		return false, err
	}

	employeeID = strings.TrimSpace(employeeID)
	day := atMidnight(startDate)

	for _, row := range rows {
		if excludeRequestID != "" && row.ID == excludeRequestID {
			continue
		}
		if strings.TrimSpace(row.EmployeeID) != employeeID {
			continue
		}
		if atMidnight(row.StartDate).Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func atMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
