package attribution

import (
	"context"
	"errors"
	"strings"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/pkg/logctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Resolver maps an opaque ref tag to a campaign id. It never fails a
// request: blank, unknown and unreadable tags all mean no attribution.
type Resolver struct {
	repo repository.CampaignRepository
	log  *zap.SugaredLogger
}

func NewResolver(repo repository.Repository, log *zap.SugaredLogger) *Resolver {
	return &Resolver{repo: repo, log: log}
}

var Module = fx.Options(
	fx.Provide(NewResolver),
)

func NormalizeReftag(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}

func (r *Resolver) Resolve(ctx context.Context, ref string) *uint {
	tag := NormalizeReftag(ref)
	if tag == "" {
		return nil
	}
	log := logctx.FromCtx(ctx, r.log)

	c, err := r.repo.FindCampaignByReftag(ctx, tag)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Warnw("attribution_unknown_ref", "ref", tag)
		return nil
	case err != nil:
		log.Errorw("attribution_lookup_failed", "ref", tag, "err", err)
		return nil
	}
	id := c.ID
	return &id
}
