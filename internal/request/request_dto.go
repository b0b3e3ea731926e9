package request

type SubmitRequest struct {
	EmployeeID   string `json:"employee_id" binding:"required"`
	EmployeeName string `json:"employee_name" binding:"required"`
	Category     string `json:"category" binding:"required,oneof=PERMISSION LEAVE HOME_LEAVE"`
	StartDate    string `json:"start_date" binding:"required"`
	EndDate      string `json:"end_date" binding:"required"`
	Duration     string `json:"duration" binding:"required"`
	Reason       string `json:"reason"`

	// Attachments arrive base64-encoded; each is optional and uploaded
	// best-effort.
	Selfie         []byte   `json:"selfie,omitempty"`
	Documents      [][]byte `json:"documents,omitempty"`
	LocationLink   string   `json:"location_link,omitempty"`
	PaymentReceipt []byte   `json:"payment_receipt,omitempty"`
}

type ResubmitRequest struct {
	Category  string `json:"category" binding:"required,oneof=PERMISSION LEAVE HOME_LEAVE"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Duration  string `json:"duration" binding:"required"`
	Reason    string `json:"reason"`

	Selfie         []byte   `json:"selfie,omitempty"`
	Documents      [][]byte `json:"documents,omitempty"`
	LocationLink   string   `json:"location_link,omitempty"`
	PaymentReceipt []byte   `json:"payment_receipt,omitempty"`
}

type DecisionRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=APPROVED REJECTED"`
	Reason  string `json:"reason"`
}

type CheckInRequest struct {
	Photo        []byte `json:"photo" binding:"required"`
	LocationLink string `json:"location_link" binding:"required"`
}

type AdminCheckInRequest struct {
	Note string `json:"note" binding:"required"`
}

type ActionCallbackRequest struct {
	Action    string `json:"action" binding:"required,oneof=approve reject"`
	RequestID string `json:"request_id" binding:"required"`
	ActorKey  string `json:"actor_key"`
	Reason    string `json:"reason"`
}

type RequestResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Category     string `json:"category"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Duration     string `json:"duration"`
	RawDuration  string `json:"raw_duration,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status"`

	Approver        *string `json:"approver,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`

	SelfieURL         *string  `json:"selfie_url,omitempty"`
	DocumentURLs      []string `json:"document_urls,omitempty"`
	LocationLink      *string  `json:"location_link,omitempty"`
	PaymentReceiptURL *string  `json:"payment_receipt_url,omitempty"`

	CheckInAt       *string `json:"check_in_at,omitempty"`
	CheckInPhotoURL *string `json:"check_in_photo_url,omitempty"`
	CheckInLocation *string `json:"check_in_location,omitempty"`
	CheckInNote     *string `json:"check_in_note,omitempty"`

	EscalationMark *string `json:"escalation_mark,omitempty"`
}

type MonthlyStatsResponse struct {
	EmployeeID      string `json:"employee_id"`
	Month           string `json:"month"`
	TotalRequests   int    `json:"total_requests"`
	TotalDays       string `json:"total_days"`
	PermissionCount int    `json:"permission_count"`
	LeaveCount      int    `json:"leave_count"`
}
