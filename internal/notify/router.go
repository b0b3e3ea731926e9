package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-permit/internal/config"
	"go-permit/internal/events"
	"go-permit/internal/messaging/kafka"
	"go-permit/internal/shared/contextutil"
)

// Router formats lifecycle and escalation events and fans them out to every
// configured channel. Dispatch is fire-and-forget: a failed enqueue is
// logged and never surfaces to the workflow that triggered it.
//
//go:generate mockgen -source=router.go -destination=mock/router_mock.go -package=mock
type Router interface {
	RequestSubmitted(ctx context.Context, ev RequestEvent, stats MonthlySummary)
	RequestDecided(ctx context.Context, ev RequestEvent)
	RequestResubmitted(ctx context.Context, ev RequestEvent)
	RequestCheckedIn(ctx context.Context, ev RequestEvent)
	EscalationRaised(ctx context.Context, ev EscalationEvent)
	SystemHealth(ctx context.Context, component string, err error)
	EditMessage(ctx context.Context, ref, newText string)
}

type router struct {
	channels []config.NotifyChannel
	outbox   kafka.OutboxRepository
	logger   *zap.Logger
}

func NewRouter(channels []config.NotifyChannel, outbox kafka.OutboxRepository, logger ...*zap.Logger) Router {
	l := zap.L().Named("notify.router")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.router")
	}
	return &router{channels: channels, outbox: outbox, logger: l}
}

func (r *router) RequestSubmitted(ctx context.Context, ev RequestEvent, stats MonthlySummary) {
	r.dispatch(ctx, events.KindRequestSubmitted, ev.ID, submittedText(ev, stats), decisionActions(ev.ID))
}

func (r *router) RequestDecided(ctx context.Context, ev RequestEvent) {
	text := decidedText(ev)
	r.dispatch(ctx, events.KindRequestDecided, ev.ID, text, nil)
	// Rewrite the original card so stale approve/reject controls disappear.
	// Channel consumers resolve the request id to their own message handle.
	r.EditMessage(ctx, ev.ID, text)
}

func (r *router) RequestResubmitted(ctx context.Context, ev RequestEvent) {
	r.dispatch(ctx, events.KindRequestResubmitted, ev.ID, resubmittedText(ev), decisionActions(ev.ID))
}

func (r *router) RequestCheckedIn(ctx context.Context, ev RequestEvent) {
	r.dispatch(ctx, events.KindRequestCheckedIn, ev.ID, checkedInText(ev), nil)
}

func (r *router) EscalationRaised(ctx context.Context, ev EscalationEvent) {
	r.dispatch(ctx, events.KindEscalation, ev.ID, escalationText(ev), nil)
}

func (r *router) SystemHealth(ctx context.Context, component string, err error) {
	r.dispatch(ctx, events.KindSystemHealth, "", systemHealthText(component, err), nil)
}

func (r *router) EditMessage(ctx context.Context, ref, newText string) {
	for _, ch := range r.channels {
		msg := events.ChannelMessage{
			Channel: ch.Name,
			Kind:    events.KindMessageEdit,
			Text:    newText,
			EditRef: ref,
		}
		r.enqueue(ctx, ch, msg)
	}
}

func (r *router) dispatch(ctx context.Context, kind, requestID, text string, actions []events.MessageAction) {
	for _, ch := range r.channels {
		msg := events.ChannelMessage{
			Channel:   ch.Name,
			Kind:      kind,
			RequestID: requestID,
			Text:      text,
		}
		// Interactive controls only ride on the action channel.
		if ch.ActionChannel {
			msg.Actions = actions
		}
		r.enqueue(ctx, ch, msg)
	}
}

func (r *router) enqueue(ctx context.Context, ch config.NotifyChannel, msg events.ChannelMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal channel message failed",
			zap.String("channel", ch.Name),
			zap.String("kind", msg.Kind),
			zap.Error(err),
		)
		return
	}

	event := kafka.OutboxEvent{
		ID:        uuid.NewString(),
		TraceID:   contextutil.GetRequestID(ctx),
		RequestID: msg.RequestID,
		Channel:   ch.Name,
		EventType: msg.Kind,
		Topic:     ch.Topic,
		Payload:   payload,
		Status:    kafka.OutboxStatusPending,
	}

	if err := r.outbox.Create(ctx, event); err != nil {
		r.logger.Error("enqueue notification failed",
			zap.String("channel", ch.Name),
			zap.String("kind", msg.Kind),
			zap.String("request_id", msg.RequestID),
			zap.Error(err),
		)
	}
}
