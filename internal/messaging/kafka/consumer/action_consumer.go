package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-permit/internal/config"
	"go-permit/internal/events"
	"go-permit/internal/request"
	"go-permit/internal/shared/apperror"
)

// ConsumeActionEvents turns inbound approve/reject callbacks from the action
// channel into lifecycle decisions. Business outcomes (already processed,
// not found) are committed and skipped; infrastructure errors leave the
// message uncommitted so it is retried.
func ConsumeActionEvents(
	ctx context.Context,
	reader *kafkago.Reader,
	svc request.Service,
	cfg config.Config,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.actions")
	log.Info("action consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("action consumer stopped")
				return
			}
			log.Error("fetch action message failed", zap.Error(err))
			continue
		}

		var event events.ActionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode action event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := handleActionEvent(ctx, svc, cfg, event); err != nil {
			if isBusinessOutcome(err) {
				log.Warn("action event skipped",
					zap.String("request_id", event.RequestID),
					zap.String("action", event.Action),
					zap.String("outcome", err.Error()),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("apply action event failed",
				zap.String("request_id", event.RequestID),
				zap.String("action", event.Action),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit action message failed", zap.Error(err))
			continue
		}

		log.Info("action event applied",
			zap.String("request_id", event.RequestID),
			zap.String("action", event.Action),
		)
	}
}

func handleActionEvent(ctx context.Context, svc request.Service, cfg config.Config, event events.ActionEvent) error {
	outcome := request.StatusApproved
	if event.Action == events.ActionReject {
		outcome = request.StatusRejected
	}

	actor := request.ResolveActor(cfg.ActorNames, cfg.ActorFallbackName, event.ActorKey)
	_, err := svc.Decide(ctx, event.RequestID, outcome, actor, event.Reason)
	return err
}

func isBusinessOutcome(err error) bool {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus < http.StatusInternalServerError
	}
	return false
}
