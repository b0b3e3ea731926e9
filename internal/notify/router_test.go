package notify_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-permit/internal/config"
	"go-permit/internal/events"
	"go-permit/internal/messaging/kafka"
	"go-permit/internal/notify"
)

type fakeOutbox struct {
	created  []kafka.OutboxEvent
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error                  { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

func twoChannels() []config.NotifyChannel {
	return []config.NotifyChannel{
		{Name: "ops", Topic: "notify-ops", ActionChannel: true},
		{Name: "archive", Topic: "notify-archive"},
	}
}

func decodeMessage(t *testing.T, payload []byte) events.ChannelMessage {
	t.Helper()
	var msg events.ChannelMessage
	err := json.Unmarshal(payload, &msg)
	assert.NoError(t, err)
	return msg
}

func sampleEvent() notify.RequestEvent {
	return notify.RequestEvent{
		ID:              "REQ-1",
		EmployeeID:      "EMP-007",
		EmployeeName:    "Budi Santoso",
		Category:        "PERMISSION",
		StartDate:       "2026-03-10",
		EndDate:         "2026-03-10",
		DurationDisplay: "1",
		Reason:          "Family matters",
		Status:          "PENDING",
	}
}

func TestRouter_FanOut(t *testing.T) {
	ctx := context.Background()

	t.Run("submission reaches every channel", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		router.RequestSubmitted(ctx, sampleEvent(), notify.MonthlySummary{TotalRequests: 2, TotalDays: "1.5"})

		assert.Len(t, outbox.created, 2)
		assert.Equal(t, "notify-ops", outbox.created[0].Topic)
		assert.Equal(t, "notify-archive", outbox.created[1].Topic)
		assert.Equal(t, events.KindRequestSubmitted, outbox.created[0].EventType)
		assert.Equal(t, "REQ-1", outbox.created[0].RequestID)
	})

	t.Run("actions ride only on the action channel", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		router.RequestSubmitted(ctx, sampleEvent(), notify.MonthlySummary{})

		opsMsg := decodeMessage(t, outbox.created[0].Payload)
		archiveMsg := decodeMessage(t, outbox.created[1].Payload)
		assert.Len(t, opsMsg.Actions, 2)
		assert.Equal(t, events.ActionApprove, opsMsg.Actions[0].Action)
		assert.Equal(t, events.ActionReject, opsMsg.Actions[1].Action)
		assert.Empty(t, archiveMsg.Actions)
	})

	t.Run("decision carries no actions anywhere", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		ev := sampleEvent()
		ev.Status = "APPROVED"
		ev.Approver = "Ibu Sari"
		router.RequestDecided(ctx, ev)

		for _, created := range outbox.created {
			msg := decodeMessage(t, created.Payload)
			assert.Empty(t, msg.Actions)
		}
	})

	t.Run("decision rewrites the original card", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		ev := sampleEvent()
		ev.Status = "APPROVED"
		ev.Approver = "Ibu Sari"
		router.RequestDecided(ctx, ev)

		assert.Len(t, outbox.created, 4)
		edit := decodeMessage(t, outbox.created[2].Payload)
		assert.Equal(t, events.KindMessageEdit, edit.Kind)
		assert.Equal(t, "REQ-1", edit.EditRef)
		assert.Equal(t, decodeMessage(t, outbox.created[0].Payload).Text, edit.Text)
	})

	t.Run("resubmission reattaches decision actions", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		router.RequestResubmitted(ctx, sampleEvent())

		opsMsg := decodeMessage(t, outbox.created[0].Payload)
		assert.Len(t, opsMsg.Actions, 2)
	})

	t.Run("escalation text names the tier", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		router.EscalationRaised(ctx, notify.EscalationEvent{
			RequestEvent: sampleEvent(),
			Tier:         "OVERDUE_TIME",
			ApprovedAt:   "2026-03-10T09:00:00Z",
			PhotoURL:     "https://photos.local/budi.png",
		})

		msg := decodeMessage(t, outbox.created[0].Payload)
		assert.Equal(t, events.KindEscalation, msg.Kind)
		assert.Contains(t, msg.Text, "OVERDUE_TIME")
		assert.Contains(t, msg.Text, "https://photos.local/budi.png")
	})

	t.Run("enqueue failure is swallowed", func(t *testing.T) {
		outbox := &fakeOutbox{
			createFn: func(ctx context.Context, event kafka.OutboxEvent) error {
				return errors.New("db down")
			},
		}
		router := notify.NewRouter(twoChannels(), outbox)

		assert.NotPanics(t, func() {
			router.RequestDecided(ctx, sampleEvent())
		})
	})

	t.Run("message edit references the original", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		router.EditMessage(ctx, "msg-42", "Request REQ-1 APPROVED by Ibu Sari")

		assert.Len(t, outbox.created, 2)
		msg := decodeMessage(t, outbox.created[0].Payload)
		assert.Equal(t, events.KindMessageEdit, msg.Kind)
		assert.Equal(t, "msg-42", msg.EditRef)
	})

	t.Run("system health has no request id", func(t *testing.T) {
		outbox := &fakeOutbox{}
		router := notify.NewRouter(twoChannels(), outbox)

		router.SystemHealth(ctx, "escalation scanner", errors.New("db down"))

		assert.Len(t, outbox.created, 2)
		assert.Empty(t, outbox.created[0].RequestID)
		assert.Equal(t, events.KindSystemHealth, outbox.created[0].EventType)
	})
}
