package request

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-permit/internal/blob"
	"go-permit/internal/config"
	"go-permit/internal/directory"
	"go-permit/internal/notify"
	requesterrors "go-permit/internal/request/errors"
)

//go:generate mockgen -source=request_service.go -destination=mock/request_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (RequestResponse, error)
	GetAll(ctx context.Context, category string) ([]RequestResponse, error)
	GetByID(ctx context.Context, id string) (RequestResponse, error)
	Decide(ctx context.Context, id, outcome, actor, reason string) (RequestResponse, error)
	Resubmit(ctx context.Context, id string, req ResubmitRequest) (RequestResponse, error)
	CheckIn(ctx context.Context, id string, req CheckInRequest) (RequestResponse, error)
	AdminCheckIn(ctx context.Context, id, actor, note string) (RequestResponse, error)
	MonthlyStats(ctx context.Context, employeeID string, ref time.Time) (MonthlyStatsResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db        *sql.DB
	repo      Repository
	directory directory.Service
	router    notify.Router
	blobs     blob.Store
	cfg       config.Config
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	dir directory.Service,
	router notify.Router,
	blobs blob.Store,
	cfg config.Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("request.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("request.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		directory: dir,
		router:    router,
		blobs:     blobs,
		cfg:       cfg,
		logger:    l,
	}
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (RequestResponse, error) {
	employeeID := strings.TrimSpace(req.EmployeeID)
	s.logger.Debug("submit requested",
		zap.String("employee_id", employeeID),
		zap.String("category", req.Category),
		zap.String("start_date", req.StartDate),
	)

	if employeeID == "" {
		return RequestResponse{}, requesterrors.ErrInvalidEmployeeID
	}
	if !IsValidCategory(req.Category) {
		return RequestResponse{}, requesterrors.ErrInvalidCategory
	}
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return RequestResponse{}, err
	}

	allowed, err := s.directory.IsEligible(ctx, employeeID)
	if err != nil {
		s.logger.Error("submit eligibility check failed", zap.Error(err))
		return RequestResponse{}, err
	}
	if !allowed {
		s.logger.Warn("submit blocked by work status", zap.String("employee_id", employeeID))
		return RequestResponse{}, requesterrors.ErrNotEligible
	}

	dup, err := s.isDuplicate(ctx, s.repo, employeeID, req.Category, startDate, "")
	if err != nil {
		s.logger.Error("submit duplicate check failed", zap.Error(err))
		return RequestResponse{}, err
	}
	if dup {
		s.logger.Warn("submit duplicate detected",
			zap.String("employee_id", employeeID),
			zap.String("category", req.Category),
			zap.String("start_date", req.StartDate),
		)
		return RequestResponse{}, requesterrors.ErrDuplicateRequest
	}

	now := time.Now().UTC()
	row := &Request{
		ID:           NewRequestID(now),
		EmployeeID:   employeeID,
		EmployeeName: req.EmployeeName,
		Category:     req.Category,
		StartDate:    startDate,
		EndDate:      endDate,
		Duration:     ParseDuration(req.Duration),
		RawDuration:  req.Duration,
		Reason:       req.Reason,
		Status:       StatusPending,
	}
	s.attachUploads(ctx, row, req.Selfie, req.Documents, req.LocationLink, req.PaymentReceipt)

	// A second submission in the same millisecond collides on the generated
	// id; one retry with a fresh id is enough.
	for attempt := 0; attempt < 2; attempt++ {
		err = s.persistNew(ctx, row)
		if err != nil && IsUniqueViolation(err) && attempt == 0 {
			row.ID = NewRequestID(time.Now().UTC().Add(time.Millisecond))
			continue
		}
		break
	}
	if err != nil {
		s.logger.Error("submit persist failed", zap.Error(err))
		return RequestResponse{}, err
	}

	s.logger.Info("submit success",
		zap.String("request_id", row.ID),
		zap.String("employee_id", employeeID),
		zap.String("category", row.Category),
	)

	stats, statsErr := s.MonthlyStats(ctx, employeeID, now)
	if statsErr != nil {
		s.logger.Warn("monthly stats for notification failed", zap.Error(statsErr))
	}
	s.router.RequestSubmitted(ctx, toEvent(*row), notify.MonthlySummary{
		TotalRequests:   stats.TotalRequests,
		TotalDays:       stats.TotalDays,
		PermissionCount: stats.PermissionCount,
		LeaveCount:      stats.LeaveCount,
	})

	return mapToResponse(*row), nil
}

func (s *service) persistNew(ctx context.Context, row *Request) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) GetAll(ctx context.Context, category string) ([]RequestResponse, error) {
	if !IsValidCategory(category) {
		return nil, requesterrors.ErrInvalidCategory
	}
	rows, err := s.repo.FindAllByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	resp := make([]RequestResponse, len(rows))
	for i, row := range rows {
		resp[i] = mapToResponse(row)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (RequestResponse, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	return mapToResponse(*row), nil
}

func (s *service) Decide(ctx context.Context, id, outcome, actor, reason string) (RequestResponse, error) {
	s.logger.Debug("decide requested",
		zap.String("request_id", id),
		zap.String("outcome", outcome),
		zap.String("actor", actor),
	)

	if outcome != StatusApproved && outcome != StatusRejected {
		return RequestResponse{}, requesterrors.ErrInvalidOutcome
	}
	if outcome == StatusRejected && strings.TrimSpace(reason) == "" {
		return RequestResponse{}, requesterrors.ErrRejectionReasonRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide begin tx failed", zap.Error(err))
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, requesterrors.ErrRequestNotFound
		}
		s.logger.Error("decide locate failed", zap.String("request_id", id), zap.Error(err))
		return RequestResponse{}, err
	}
	if row.Status != StatusPending {
		return RequestResponse{}, requesterrors.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"status":      outcome,
		"approver":    actor,
		"approved_at": now,
	}
	if outcome == StatusRejected && reason != "" {
		fields["rejection_reason"] = reason
	}

	// The conditional update is the real guard: a concurrent decision that
	// got there first leaves zero rows for this one.
	won, err := qtx.DecidePending(ctx, id, fields)
	if err != nil {
		s.logger.Error("decide persist failed", zap.String("request_id", id), zap.Error(err))
		return RequestResponse{}, err
	}
	if !won {
		s.logger.Warn("decide lost compare-and-set", zap.String("request_id", id))
		return RequestResponse{}, requesterrors.ErrAlreadyProcessed
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide commit failed", zap.String("request_id", id), zap.Error(err))
		return RequestResponse{}, err
	}

	row.Status = outcome
	row.Approver = &actor
	row.ApprovedAt = &now
	if outcome == StatusRejected && reason != "" {
		row.RejectionReason = &reason
	}

	s.directory.Invalidate(ctx)
	s.router.RequestDecided(ctx, toEvent(*row))

	s.logger.Info("decide success",
		zap.String("request_id", id),
		zap.String("outcome", outcome),
		zap.String("actor", actor),
	)
	return mapToResponse(*row), nil
}

func (s *service) Resubmit(ctx context.Context, id string, req ResubmitRequest) (RequestResponse, error) {
	s.logger.Debug("resubmit requested", zap.String("request_id", id))

	if !IsValidCategory(req.Category) {
		return RequestResponse{}, requesterrors.ErrInvalidCategory
	}
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return RequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}

	dup, err := s.isDuplicate(ctx, qtx, row.EmployeeID, req.Category, startDate, id)
	if err != nil {
		return RequestResponse{}, err
	}
	if dup {
		return RequestResponse{}, requesterrors.ErrDuplicateRequest
	}

	duration := ParseDuration(req.Duration)
	fields := map[string]any{
		"category":     req.Category,
		"start_date":   startDate,
		"end_date":     endDate,
		"duration":     duration,
		"raw_duration": req.Duration,
		"reason":       req.Reason,
		// resubmission reopens the request
		"status":           StatusPending,
		"approver":         nil,
		"approved_at":      nil,
		"rejection_reason": nil,
		"check_in_note":    nil,
	}

	updated := *row
	updated.Category = req.Category
	updated.StartDate = startDate
	updated.EndDate = endDate
	updated.Duration = duration
	updated.RawDuration = req.Duration
	updated.Reason = req.Reason
	updated.Status = StatusPending
	updated.Approver = nil
	updated.ApprovedAt = nil
	updated.RejectionReason = nil
	updated.CheckInNote = nil

	s.attachUploads(ctx, &updated, req.Selfie, req.Documents, req.LocationLink, req.PaymentReceipt)
	if updated.SelfieURL != row.SelfieURL {
		fields["selfie_url"] = updated.SelfieURL
	}
	if len(req.Documents) > 0 {
		fields["document_urls"] = updated.DocumentURLs
	}
	if req.LocationLink != "" {
		fields["location_link"] = updated.LocationLink
	}
	if updated.PaymentReceiptURL != row.PaymentReceiptURL {
		fields["payment_receipt_url"] = updated.PaymentReceiptURL
	}

	if err := qtx.UpdateFields(ctx, id, fields); err != nil {
		s.logger.Error("resubmit persist failed", zap.String("request_id", id), zap.Error(err))
		return RequestResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return RequestResponse{}, err
	}

	s.router.RequestResubmitted(ctx, toEvent(updated))
	s.logger.Info("resubmit success", zap.String("request_id", id))
	return mapToResponse(updated), nil
}

func (s *service) CheckIn(ctx context.Context, id string, req CheckInRequest) (RequestResponse, error) {
	now := time.Now().UTC()
	fields := map[string]any{"check_in_at": now}

	if len(req.Photo) > 0 {
		url, err := s.blobs.Store(ctx, req.Photo, "image/jpeg", s.cfg.CheckInFolder)
		if err != nil {
			// degrade: the check-in still counts without the photo
			s.logger.Warn("check-in photo upload failed", zap.String("request_id", id), zap.Error(err))
		} else {
			fields["check_in_photo_url"] = url
		}
	}
	if req.LocationLink != "" {
		fields["check_in_location"] = req.LocationLink
	}

	return s.applyCheckIn(ctx, id, fields)
}

func (s *service) AdminCheckIn(ctx context.Context, id, actor, note string) (RequestResponse, error) {
	now := time.Now().UTC()
	annotated := note
	if actor != "" {
		annotated = actor + ": " + note
	}
	fields := map[string]any{
		"check_in_at":   now,
		"check_in_note": annotated,
	}
	return s.applyCheckIn(ctx, id, fields)
}

func (s *service) applyCheckIn(ctx context.Context, id string, fields map[string]any) (RequestResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}

	// First writer wins: a second check-in finds check_in_at already set.
	won, err := qtx.SetCheckIn(ctx, id, fields)
	if err != nil {
		s.logger.Error("check-in persist failed", zap.String("request_id", id), zap.Error(err))
		return RequestResponse{}, err
	}
	if !won {
		return RequestResponse{}, requesterrors.ErrAlreadyCheckedIn
	}

	if err := tx.Commit(); err != nil {
		return RequestResponse{}, err
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return RequestResponse{}, err
	}

	s.router.RequestCheckedIn(ctx, toEvent(*row))
	s.logger.Info("check-in success", zap.String("request_id", id))
	return mapToResponse(*row), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) attachUploads(
	ctx context.Context,
	row *Request,
	selfie []byte,
	documents [][]byte,
	locationLink string,
	receipt []byte,
) {
	if len(selfie) > 0 {
		if url, err := s.blobs.Store(ctx, selfie, "image/jpeg", s.cfg.SelfieFolder); err != nil {
			s.logger.Warn("selfie upload failed", zap.String("request_id", row.ID), zap.Error(err))
		} else {
			row.SelfieURL = &url
		}
	}

	if len(documents) > 0 {
		urls := make([]string, 0, len(documents))
		for i, doc := range documents {
			url, err := s.blobs.Store(ctx, doc, "application/octet-stream", s.cfg.DocumentFolder)
			if err != nil {
				s.logger.Warn("document upload failed",
					zap.String("request_id", row.ID),
					zap.Int("index", i),
					zap.Error(err),
				)
				continue
			}
			urls = append(urls, url)
		}
		if len(urls) > 0 {
			row.DocumentURLs = urls
		}
	}

	if locationLink != "" {
		row.LocationLink = &locationLink
	}

	if len(receipt) > 0 {
		if url, err := s.blobs.Store(ctx, receipt, "image/jpeg", s.cfg.ReceiptFolder); err != nil {
			s.logger.Warn("payment receipt upload failed", zap.String("request_id", row.ID), zap.Error(err))
		} else {
			row.PaymentReceiptURL = &url
		}
	}
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, requesterrors.ErrInvalidDateRange
	}
	return startDate, endDate, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, requesterrors.ErrInvalidDateFormat
	}
	return t, nil
}

func toEvent(row Request) notify.RequestEvent {
	ev := notify.RequestEvent{
		ID:              row.ID,
		EmployeeID:      row.EmployeeID,
		EmployeeName:    row.EmployeeName,
		Category:        row.Category,
		StartDate:       row.StartDate.Format("2006-01-02"),
		EndDate:         row.EndDate.Format("2006-01-02"),
		DurationDisplay: DurationDisplay(row.RawDuration, row.Duration),
		Reason:          row.Reason,
		Status:          row.Status,
	}
	if row.Approver != nil {
		ev.Approver = *row.Approver
	}
	if row.RejectionReason != nil {
		ev.RejectionReason = *row.RejectionReason
	}
	return ev
}

func mapToResponse(row Request) RequestResponse {
	resp := RequestResponse{
		ID:           row.ID,
		EmployeeID:   row.EmployeeID,
		EmployeeName: row.EmployeeName,
		Category:     row.Category,
		StartDate:    row.StartDate.Format("2006-01-02"),
		EndDate:      row.EndDate.Format("2006-01-02"),
		Duration:     row.Duration.String(),
		RawDuration:  row.RawDuration,
		Reason:       row.Reason,
		Status:       row.Status,

		DocumentURLs:      row.DocumentURLs,
		SelfieURL:         row.SelfieURL,
		LocationLink:      row.LocationLink,
		PaymentReceiptURL: row.PaymentReceiptURL,
		CheckInPhotoURL:   row.CheckInPhotoURL,
		CheckInLocation:   row.CheckInLocation,
		CheckInNote:       row.CheckInNote,
		RejectionReason:   row.RejectionReason,
		Approver:          row.Approver,
		EscalationMark:    row.EscalationMark,
	}
	if row.ApprovedAt != nil {
		v := row.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if row.CheckInAt != nil {
		v := row.CheckInAt.Format(time.RFC3339)
		resp.CheckInAt = &v
	}
	return resp
}
