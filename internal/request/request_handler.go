package request

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-permit/internal/config"
	"go-permit/internal/shared/apperror"
	"go-permit/internal/shared/response"
)

type Handler struct {
	service Service
	cfg     config.Config
	logger  *zap.Logger
}

func NewHandler(service Service, cfg config.Config, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("request.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("request.handler")
	}
	return &Handler{service: service, cfg: cfg, logger: l}
}

func getActorName(c *gin.Context) string {
	actor := c.GetString("actor_name")
	if actor == "" {
		actor = c.GetString("employee_id")
	}
	return actor
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("request operation failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http submit validation failed", zap.Error(err))
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.DefaultQuery("category", CategoryPermission)

	resp, err := h.service.GetAll(ctx, category)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Decide(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http decide validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.Decide(ctx, id, req.Outcome, getActorName(c), req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Resubmit(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req ResubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http resubmit validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.Resubmit(ctx, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) CheckIn(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http check-in validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.CheckIn(ctx, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) AdminCheckIn(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req AdminCheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http admin check-in validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.AdminCheckIn(ctx, id, getActorName(c), req.Note)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) MonthlyStats(c *gin.Context) {
	ctx := c.Request.Context()

	employeeID := c.Query("employee_id")
	if employeeID == "" {
		response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "employee_id is required", nil)
		return
	}

	ref := time.Now().UTC()
	if month := c.Query("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid month format, expected YYYY-MM", nil)
			return
		}
		ref = parsed
	}

	resp, err := h.service.MonthlyStats(ctx, employeeID, ref)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

// ActionCallback accepts the same approve/reject events the kafka consumer
// handles, for channels that call back over HTTP. A malformed actor key
// still resolves to the fallback name.
func (h *Handler) ActionCallback(c *gin.Context) {
	ctx := c.Request.Context()

	var req ActionCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http action callback validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	outcome := StatusApproved
	if req.Action == "reject" {
		outcome = StatusRejected
	}
	actor := ResolveActor(h.cfg.ActorNames, h.cfg.ActorFallbackName, req.ActorKey)

	resp, err := h.service.Decide(ctx, req.RequestID, outcome, actor, req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
