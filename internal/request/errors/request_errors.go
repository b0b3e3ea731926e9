package requesterrors

import (
	"net/http"

	"go-permit/internal/shared/apperror"
)

var (
	ErrRequestNotFound = apperror.New(
		apperror.CodeNotFound,
		"request not found",
		http.StatusNotFound,
	)
	ErrAlreadyProcessed = apperror.New(
		apperror.CodeAlreadyProcessed,
		"request has already been processed",
		http.StatusConflict,
	)
	ErrAlreadyCheckedIn = apperror.New(
		apperror.CodeAlreadyCheckedIn,
		"request has already been checked in",
		http.StatusConflict,
	)
	ErrDuplicateRequest = apperror.New(
		apperror.CodeConflict,
		"a request for the same day and category already exists",
		http.StatusConflict,
	)
	ErrNotEligible = apperror.New(
		apperror.CodeForbidden,
		"employee work status does not allow this request",
		http.StatusForbidden,
	)
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave category",
		http.StatusBadRequest,
	)
	ErrInvalidOutcome = apperror.New(
		apperror.CodeInvalidInput,
		"outcome must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required when outcome is REJECTED",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
)
