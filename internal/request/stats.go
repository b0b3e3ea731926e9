package request

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyStats recomputes the per-employee month summary on demand by
// scanning every partition. Only APPROVED rows whose start date falls in the
// same calendar month as ref are counted.
func (s *service) MonthlyStats(ctx context.Context, employeeID string, ref time.Time) (MonthlyStatsResponse, error) {
	employeeID = strings.TrimSpace(employeeID)

	resp := MonthlyStatsResponse{
		EmployeeID: employeeID,
		Month:      ref.Format("2006-01"),
	}
	totalDays := decimal.Zero

	for _, category := range Categories {
		rows, err := s.repo.FindAllByCategory(ctx, category)
		if err != nil {
			return MonthlyStatsResponse{}, err
		}

		for _, row := range rows {
			if strings.TrimSpace(row.EmployeeID) != employeeID {
				continue
			}
			if row.Status != StatusApproved {
				continue
			}
			if row.StartDate.Year() != ref.Year() || row.StartDate.Month() != ref.Month() {
				continue
			}

			resp.TotalRequests++
			totalDays = totalDays.Add(row.Duration)
			switch row.Category {
			case CategoryPermission:
				resp.PermissionCount++
			case CategoryLeave:
				resp.LeaveCount++
			}
		}
	}

	resp.TotalDays = totalDays.String()
	return resp, nil
}
