package request

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryPermission = "PERMISSION"
	CategoryLeave      = "LEAVE"
	CategoryHomeLeave  = "HOME_LEAVE"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Categories lists the ledger partitions in a fixed order. Full scans
// (duplicate guard, monthly stats) walk partitions in this order.
var Categories = []string{CategoryPermission, CategoryLeave, CategoryHomeLeave}

// Request is one row in the leave ledger. The id is assigned once at
// submission and never changes; it is unique across every category.
type Request struct {
	ID           string    `gorm:"column:id;type:varchar(40);primaryKey"`
	EmployeeID   string    `gorm:"column:employee_id;type:varchar(60);not null;index:idx_leave_requests_employee"`
	EmployeeName string    `gorm:"column:employee_name;type:varchar(120);not null"`
	Category     string    `gorm:"column:category;type:varchar(20);not null;index:idx_leave_requests_category_status"`
	StartDate    time.Time `gorm:"column:start_date;type:date;not null"`
	EndDate      time.Time `gorm:"column:end_date;type:date;not null"`

	Duration    decimal.Decimal `gorm:"column:duration;type:numeric(5,2);not null"`
	RawDuration string          `gorm:"column:raw_duration;type:varchar(30)"`
	Reason      string          `gorm:"column:reason;type:text"`

	Status          string     `gorm:"column:status;type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_category_status"`
	Approver        *string    `gorm:"column:approver;type:varchar(120)"`
	ApprovedAt      *time.Time `gorm:"column:approved_at;type:timestamptz"`
	RejectionReason *string    `gorm:"column:rejection_reason;type:text"`

	SelfieURL         *string  `gorm:"column:selfie_url;type:text"`
	DocumentURLs      []string `gorm:"column:document_urls;type:jsonb;serializer:json"`
	LocationLink      *string  `gorm:"column:location_link;type:text"`
	PaymentReceiptURL *string  `gorm:"column:payment_receipt_url;type:text"`

	CheckInAt       *time.Time `gorm:"column:check_in_at;type:timestamptz"`
	CheckInPhotoURL *string    `gorm:"column:check_in_photo_url;type:text"`
	CheckInLocation *string    `gorm:"column:check_in_location;type:text"`
	CheckInNote     *string    `gorm:"column:check_in_note;type:text"`

	EscalationMark *string `gorm:"column:escalation_mark;type:varchar(20)"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Request) TableName() string {
	return "leave_requests"
}

// NewRequestID builds the ledger key from the creation instant.
func NewRequestID(now time.Time) string {
	return fmt.Sprintf("REQ-%d", now.UnixMilli())
}

func IsValidCategory(category string) bool {
	switch category {
	case CategoryPermission, CategoryLeave, CategoryHomeLeave:
		return true
	}
	return false
}
