// Package eventlog keeps an audit row per inbound processor event.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/tool"
	"github.com/fatflowers/patron/pkg/types"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Service struct {
	repo repository.Repository
	log  *zap.SugaredLogger
}

func New(repo repository.Repository, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, log: log}
}

var Module = fx.Options(
	fx.Provide(New),
)

// Begin records a received event. A failed write is logged and the returned
// row is still usable by Finish.
func (s *Service) Begin(ctx context.Context, provider types.PaymentProvider, eventID, eventType string, data []byte) *models.ProcessorEventLog {
	l := &models.ProcessorEventLog{
		ID:        tool.GenerateUUIDV7(),
		Provider:  provider,
		EventID:   eventID,
		EventType: eventType,
		TraceID:   logctx.TraceID(ctx),
		Data:      datatypes.JSON(data),
		Status:    types.ProcessorEventStatusReceived,
	}
	if len(l.Data) == 0 {
		l.Data = datatypes.JSON("{}")
	}
	s.save(ctx, l)
	return l
}

// Finish moves l to its final status with an optional result payload.
func (s *Service) Finish(ctx context.Context, l *models.ProcessorEventLog, status types.ProcessorEventStatus, result any) {
	if l == nil {
		return
	}
	l.Status = status
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			raw, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("unencodable result: %v", err)})
		}
		r := datatypes.JSON(raw)
		l.Result = &r
	}
	s.save(ctx, l)
}

// HasHandled reports whether the event already completed successfully.
func (s *Service) HasHandled(ctx context.Context, provider types.PaymentProvider, eventID string) (bool, error) {
	ok, err := s.repo.HasEventWithStatus(ctx, provider, eventID, types.ProcessorEventStatusHandled)
	if err != nil {
		return false, fmt.Errorf("failed to check processor event: %w", err)
	}
	return ok, nil
}

func (s *Service) save(ctx context.Context, l *models.ProcessorEventLog) {
	if err := s.repo.SaveEventLog(ctx, l); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed to save processor event log", "event_id", l.EventID, "status", l.Status, "error", err)
	}
}
