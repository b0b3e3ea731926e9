package directory

import "time"

// WorkStatusInactive is the only flag value that blocks a submission.
// A missing record or an empty flag is treated as allowed.
const WorkStatusInactive = "INACTIVE"

// Employee is the source-of-record row behind the directory cache.
type Employee struct {
	EmployeeID string    `gorm:"column:employee_id;type:varchar(60);primaryKey"`
	FullName   string    `gorm:"column:full_name;type:varchar(120);not null"`
	PhotoURL   string    `gorm:"column:photo_url;type:text"`
	WorkStatus string    `gorm:"column:work_status;type:varchar(20)"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}

// Entry is the cached projection served to callers.
type Entry struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}
