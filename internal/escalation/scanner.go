package escalation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-permit/internal/directory"
	"go-permit/internal/notify"
	"go-permit/internal/request"
)

// Ledger is the slice of the request store the scanner needs.
type Ledger interface {
	FindAllByCategory(ctx context.Context, category string) ([]request.Request, error)
	AdvanceEscalationMark(ctx context.Context, id string, from *string, to string) (bool, error)
}

type Scanner struct {
	ledger           Ledger
	directory        directory.Service
	router           notify.Router
	locker           Locker
	placeholderPhoto string
	logger           *zap.Logger
}

func NewScanner(
	ledger Ledger,
	dir directory.Service,
	router notify.Router,
	locker Locker,
	placeholderPhoto string,
	logger *zap.Logger,
) *Scanner {
	return &Scanner{
		ledger:           ledger,
		directory:        dir,
		router:           router,
		locker:           locker,
		placeholderPhoto: placeholderPhoto,
		logger:           logger,
	}
}

// Scan walks the PERMISSION partition once and raises any escalations that
// are due at now. Row-level failures are logged and skipped so one bad row
// cannot stall the rest of the sweep.
func (s *Scanner) Scan(ctx context.Context, now time.Time) error {
	release, ok := s.locker.TryLock(ctx)
	if !ok {
		s.logger.Debug("escalation scan skipped, lock held elsewhere")
		return nil
	}
	defer release()

	rows, err := s.ledger.FindAllByCategory(ctx, request.CategoryPermission)
	if err != nil {
		s.logger.Error("escalation scan failed to read requests", zap.Error(err))
		s.router.SystemHealth(ctx, "escalation scanner", err)
		return err
	}

	for _, row := range rows {
		if row.Status != request.StatusApproved || row.CheckInAt != nil {
			continue
		}

		tier, due := NextTier(row.Duration, row.ApprovedAt, row.StartDate, row.EscalationMark, now)
		if !due {
			continue
		}

		// advance the mark first; notify only after we won the claim
		advanced, err := s.ledger.AdvanceEscalationMark(ctx, row.ID, row.EscalationMark, tier)
		if err != nil {
			s.logger.Error("failed to advance escalation mark",
				zap.String("request_id", row.ID),
				zap.String("tier", tier),
				zap.Error(err))
			continue
		}
		if !advanced {
			// another scanner run claimed this tier already
			continue
		}

		s.notifyTier(ctx, row, tier)
	}

	return nil
}

func (s *Scanner) notifyTier(ctx context.Context, row request.Request, tier string) {
	name := row.EmployeeName
	photo := s.placeholderPhoto

	entry, found, err := s.directory.Resolve(ctx, row.EmployeeID)
	if err != nil {
		s.logger.Warn("directory lookup failed during escalation",
			zap.String("employee_id", row.EmployeeID), zap.Error(err))
	} else if found {
		if entry.Name != "" {
			name = entry.Name
		}
		if entry.PhotoURL != "" {
			photo = entry.PhotoURL
		}
	}

	approvedAt := ""
	if row.ApprovedAt != nil {
		approvedAt = row.ApprovedAt.Format(time.RFC3339)
	}

	s.router.EscalationRaised(ctx, notify.EscalationEvent{
		RequestEvent: notify.RequestEvent{
			ID:              row.ID,
			EmployeeID:      row.EmployeeID,
			EmployeeName:    name,
			Category:        row.Category,
			StartDate:       row.StartDate.Format("2006-01-02"),
			EndDate:         row.EndDate.Format("2006-01-02"),
			DurationDisplay: request.DurationDisplay(row.RawDuration, row.Duration),
			Reason:          row.Reason,
			Status:          row.Status,
		},
		Tier:       tier,
		ApprovedAt: approvedAt,
		PhotoURL:   photo,
	})

	s.logger.Info("escalation raised",
		zap.String("request_id", row.ID),
		zap.String("employee_id", row.EmployeeID),
		zap.String("tier", tier))
}

// Run fires a scan every interval until ctx is cancelled.
func Run(ctx context.Context, scanner *Scanner, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("escalation scanner started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("escalation scanner stopped")
			return
		case <-ticker.C:
			_ = scanner.Scan(ctx, time.Now())
		}
	}
}
