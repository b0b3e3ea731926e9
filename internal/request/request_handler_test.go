package request_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"go-permit/internal/config"
	"go-permit/internal/request"
	requesterrors "go-permit/internal/request/errors"
	"go-permit/internal/shared/apperror"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeRequestService struct {
	submitFn       func(ctx context.Context, req request.SubmitRequest) (request.RequestResponse, error)
	getAllFn       func(ctx context.Context, category string) ([]request.RequestResponse, error)
	getByIDFn      func(ctx context.Context, id string) (request.RequestResponse, error)
	decideFn       func(ctx context.Context, id, outcome, actor, reason string) (request.RequestResponse, error)
	resubmitFn     func(ctx context.Context, id string, req request.ResubmitRequest) (request.RequestResponse, error)
	checkInFn      func(ctx context.Context, id string, req request.CheckInRequest) (request.RequestResponse, error)
	adminCheckInFn func(ctx context.Context, id, actor, note string) (request.RequestResponse, error)
	monthlyStatsFn func(ctx context.Context, employeeID string, ref time.Time) (request.MonthlyStatsResponse, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (f *fakeRequestService) Submit(ctx context.Context, req request.SubmitRequest) (request.RequestResponse, error) {
	return f.submitFn(ctx, req)
}
func (f *fakeRequestService) GetAll(ctx context.Context, category string) ([]request.RequestResponse, error) {
	return f.getAllFn(ctx, category)
}
func (f *fakeRequestService) GetByID(ctx context.Context, id string) (request.RequestResponse, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeRequestService) Decide(ctx context.Context, id, outcome, actor, reason string) (request.RequestResponse, error) {
	return f.decideFn(ctx, id, outcome, actor, reason)
}
func (f *fakeRequestService) Resubmit(ctx context.Context, id string, req request.ResubmitRequest) (request.RequestResponse, error) {
	return f.resubmitFn(ctx, id, req)
}
func (f *fakeRequestService) CheckIn(ctx context.Context, id string, req request.CheckInRequest) (request.RequestResponse, error) {
	return f.checkInFn(ctx, id, req)
}
func (f *fakeRequestService) AdminCheckIn(ctx context.Context, id, actor, note string) (request.RequestResponse, error) {
	return f.adminCheckInFn(ctx, id, actor, note)
}
func (f *fakeRequestService) MonthlyStats(ctx context.Context, employeeID string, ref time.Time) (request.MonthlyStatsResponse, error) {
	return f.monthlyStatsFn(ctx, employeeID, ref)
}
func (f *fakeRequestService) Delete(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func TestRequestHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeRequestService{
			submitFn: func(ctx context.Context, req request.SubmitRequest) (request.RequestResponse, error) {
				assert.Equal(t, "EMP-007", req.EmployeeID)
				return request.RequestResponse{
					ID:         "REQ-1",
					EmployeeID: req.EmployeeID,
					Category:   req.Category,
					Status:     request.StatusPending,
				}, nil
			},
		}

		h := request.NewHandler(svc, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"EMP-007","employee_name":"Budi Santoso","category":"PERMISSION","start_date":"2026-03-10","end_date":"2026-03-10","duration":"1","reason":"Family matters"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got request.RequestResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "REQ-1", got.ID)
		assert.Equal(t, request.StatusPending, got.Status)
	})

	t.Run("negative validation error", func(t *testing.T) {
		h := request.NewHandler(&fakeRequestService{}, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, apperror.CodeInvalidInput, env.Error.Code)
	})

	t.Run("duplicate maps to conflict", func(t *testing.T) {
		svc := &fakeRequestService{
			submitFn: func(ctx context.Context, req request.SubmitRequest) (request.RequestResponse, error) {
				return request.RequestResponse{}, requesterrors.ErrDuplicateRequest
			},
		}
		h := request.NewHandler(svc, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"employee_id":"EMP-007","employee_name":"Budi Santoso","category":"PERMISSION","start_date":"2026-03-10","end_date":"2026-03-10","duration":"1"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Create(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, apperror.CodeConflict, env.Error.Code)
	})
}

func TestRequestHandler_Decide(t *testing.T) {
	t.Run("actor name comes from the auth claims", func(t *testing.T) {
		svc := &fakeRequestService{
			decideFn: func(ctx context.Context, id, outcome, actor, reason string) (request.RequestResponse, error) {
				assert.Equal(t, "REQ-1", id)
				assert.Equal(t, request.StatusApproved, outcome)
				assert.Equal(t, "Ibu Sari", actor)
				return request.RequestResponse{ID: id, Status: outcome}, nil
			},
		}

		h := request.NewHandler(svc, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/requests/REQ-1/decision", strings.NewReader(`{"outcome":"APPROVED"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: "REQ-1"}}
		c.Set("actor_name", "Ibu Sari")
		c.Set("employee_id", "EMP-100")

		h.Decide(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already processed maps to conflict", func(t *testing.T) {
		svc := &fakeRequestService{
			decideFn: func(ctx context.Context, id, outcome, actor, reason string) (request.RequestResponse, error) {
				return request.RequestResponse{}, requesterrors.ErrAlreadyProcessed
			},
		}

		h := request.NewHandler(svc, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/requests/REQ-1/decision", strings.NewReader(`{"outcome":"REJECTED","reason":"too late"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: "REQ-1"}}

		h.Decide(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, apperror.CodeAlreadyProcessed, env.Error.Code)
	})
}

func TestRequestHandler_GetById(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc := &fakeRequestService{
			getByIDFn: func(ctx context.Context, id string) (request.RequestResponse, error) {
				return request.RequestResponse{}, requesterrors.ErrRequestNotFound
			},
		}

		h := request.NewHandler(svc, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/requests/REQ-404", nil)
		c.Params = gin.Params{{Key: "id", Value: "REQ-404"}}

		h.GetById(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRequestHandler_MonthlyStats(t *testing.T) {
	t.Run("employee_id is required", func(t *testing.T) {
		h := request.NewHandler(&fakeRequestService{}, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/requests/stats/monthly", nil)

		h.MonthlyStats(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("month query selects the reference month", func(t *testing.T) {
		svc := &fakeRequestService{
			monthlyStatsFn: func(ctx context.Context, employeeID string, ref time.Time) (request.MonthlyStatsResponse, error) {
				assert.Equal(t, "EMP-007", employeeID)
				assert.Equal(t, 2026, ref.Year())
				assert.Equal(t, time.February, ref.Month())
				return request.MonthlyStatsResponse{
					EmployeeID:    employeeID,
					Month:         "2026-02",
					TotalRequests: 1,
					TotalDays:     "1",
				}, nil
			},
		}

		h := request.NewHandler(svc, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/requests/stats/monthly?employee_id=EMP-007&month=2026-02", nil)

		h.MonthlyStats(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		var got request.MonthlyStatsResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "2026-02", got.Month)
	})

	t.Run("invalid month format", func(t *testing.T) {
		h := request.NewHandler(&fakeRequestService{}, config.Config{})
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/requests/stats/monthly?employee_id=EMP-007&month=Feb-2026", nil)

		h.MonthlyStats(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequestHandler_ActionCallback(t *testing.T) {
	cfg := config.Config{
		ActorNames:        map[string]string{"sari.k": "Ibu Sari"},
		ActorFallbackName: "Admin",
	}

	t.Run("approve resolves the actor display name", func(t *testing.T) {
		svc := &fakeRequestService{
			decideFn: func(ctx context.Context, id, outcome, actor, reason string) (request.RequestResponse, error) {
				assert.Equal(t, "REQ-1", id)
				assert.Equal(t, request.StatusApproved, outcome)
				assert.Equal(t, "Ibu Sari", actor)
				return request.RequestResponse{ID: id, Status: outcome}, nil
			},
		}

		h := request.NewHandler(svc, cfg)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"action":"approve","request_id":"REQ-1","actor_key":"sari.k"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/actions/callback", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.ActionCallback(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown actor key falls back", func(t *testing.T) {
		svc := &fakeRequestService{
			decideFn: func(ctx context.Context, id, outcome, actor, reason string) (request.RequestResponse, error) {
				assert.Equal(t, request.StatusRejected, outcome)
				assert.Equal(t, "Admin", actor)
				assert.Equal(t, "tanggal bentrok", reason)
				return request.RequestResponse{ID: id, Status: outcome}, nil
			},
		}

		h := request.NewHandler(svc, cfg)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"action":"reject","request_id":"REQ-1","actor_key":"ghost","reason":"tanggal bentrok"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/actions/callback", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.ActionCallback(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unsupported action fails validation", func(t *testing.T) {
		h := request.NewHandler(&fakeRequestService{}, cfg)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"action":"snooze","request_id":"REQ-1"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/actions/callback", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")

		h.ActionCallback(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
