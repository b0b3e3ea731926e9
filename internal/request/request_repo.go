package request

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

//go:generate mockgen -source=request_repo.go -destination=mock/request_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id string) (*Request, error)
	FindAllByCategory(ctx context.Context, category string) ([]Request, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	// DecidePending applies fields only while the row is still PENDING and
	// reports whether the compare-and-set won.
	DecidePending(ctx context.Context, id string, fields map[string]any) (bool, error)
	// SetCheckIn applies fields only while check_in_at is unset; the first
	// writer wins.
	SetCheckIn(ctx context.Context, id string, fields map[string]any) (bool, error)
	// AdvanceEscalationMark moves the mark from its current value to the next
	// tier atomically so overlapping scanner runs cannot double-notify.
	AdvanceEscalationMark(ctx context.Context, id string, from *string, to string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) FindAllByCategory(ctx context.Context, category string) ([]Request, error) {
	var rows []Request
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&Request{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) DecidePending(ctx context.Context, id string, fields map[string]any) (bool, error) {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Request{}).
		Where("id = ?", id).
		Where("status = ?", StatusPending).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) SetCheckIn(ctx context.Context, id string, fields map[string]any) (bool, error) {
	fields["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Request{}).
		Where("id = ?", id).
		Where("check_in_at IS NULL").
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) AdvanceEscalationMark(ctx context.Context, id string, from *string, to string) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&Request{}).
		Where("id = ?", id)
	if from == nil {
		q = q.Where("escalation_mark IS NULL")
	} else {
		q = q.Where("escalation_mark = ?", *from)
	}

	res := q.Updates(map[string]any{
		"escalation_mark": to,
		"updated_at":      time.Now().UTC(),
	})
	return res.RowsAffected > 0, res.Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Request{}, "id = ?", id).Error
}

// IsUniqueViolation reports a postgres 23505 on the ledger primary key.
// Two submissions landing on the same millisecond collide on the generated
// id; the caller retries with a fresh one.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
