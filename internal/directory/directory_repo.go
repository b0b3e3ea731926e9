package directory

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=directory_repo.go -destination=mock/directory_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context) ([]Employee, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var rows []Employee
	err := r.db.WithContext(ctx).
		Order("employee_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		First(&e, "employee_id = ?", employeeID).Error
	return &e, err
}
