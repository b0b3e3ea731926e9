package notify

import (
	"fmt"
	"strings"

	"go-permit/internal/events"
)

// RequestEvent is the flattened view of a ledger row the router formats
// into channel messages. Callers build it so this package never imports the
// request domain.
type RequestEvent struct {
	ID              string
	EmployeeID      string
	EmployeeName    string
	Category        string
	StartDate       string
	EndDate         string
	DurationDisplay string
	Reason          string
	Status          string
	Approver        string
	RejectionReason string
}

// MonthlySummary is embedded in submission messages so approvers see the
// employee's month at a glance.
type MonthlySummary struct {
	TotalRequests   int
	TotalDays       string
	PermissionCount int
	LeaveCount      int
}

// EscalationEvent carries the extra fields an overdue check-in message needs.
type EscalationEvent struct {
	RequestEvent
	Tier       string
	ApprovedAt string
	PhotoURL   string
}

func submittedText(ev RequestEvent, stats MonthlySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s request %s\n", ev.Category, ev.ID)
	fmt.Fprintf(&b, "Employee: %s (%s)\n", ev.EmployeeName, ev.EmployeeID)
	fmt.Fprintf(&b, "Dates: %s → %s (%s)\n", ev.StartDate, ev.EndDate, ev.DurationDisplay)
	if ev.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", ev.Reason)
	}
	fmt.Fprintf(&b, "This month: %d requests, %s days (%d permission / %d leave)",
		stats.TotalRequests, stats.TotalDays, stats.PermissionCount, stats.LeaveCount)
	return b.String()
}

func decidedText(ev RequestEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request %s %s by %s\n", ev.ID, ev.Status, ev.Approver)
	fmt.Fprintf(&b, "Employee: %s (%s)", ev.EmployeeName, ev.EmployeeID)
	if ev.RejectionReason != "" {
		fmt.Fprintf(&b, "\nReason: %s", ev.RejectionReason)
	}
	return b.String()
}

func resubmittedText(ev RequestEvent) string {
	return fmt.Sprintf("Request %s was edited and resubmitted by %s (%s)\nDates: %s → %s (%s)",
		ev.ID, ev.EmployeeName, ev.EmployeeID, ev.StartDate, ev.EndDate, ev.DurationDisplay)
}

func checkedInText(ev RequestEvent) string {
	return fmt.Sprintf("Request %s checked in\nEmployee: %s (%s)",
		ev.ID, ev.EmployeeName, ev.EmployeeID)
}

func escalationText(ev EscalationEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Overdue check-in (%s) for request %s\n", ev.Tier, ev.ID)
	fmt.Fprintf(&b, "Employee: %s (%s)\n", ev.EmployeeName, ev.EmployeeID)
	fmt.Fprintf(&b, "Duration: %s, approved at %s\n", ev.DurationDisplay, ev.ApprovedAt)
	if ev.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", ev.Reason)
	}
	fmt.Fprintf(&b, "Photo: %s", ev.PhotoURL)
	return b.String()
}

func systemHealthText(component string, err error) string {
	return fmt.Sprintf("🔴 %s failed: %v", component, err)
}

func decisionActions(requestID string) []events.MessageAction {
	return []events.MessageAction{
		{Label: "Approve", Action: events.ActionApprove, RequestID: requestID},
		{Label: "Reject", Action: events.ActionReject, RequestID: requestID},
	}
}
