package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	KeyMaxDonationUSD   = "max_donation_usd"
	KeyMembershipPrices = "membership_prices"
)

// Service reads site-wide commerce settings. Malformed values are logged
// and ignored in favor of configured defaults.
type Service struct {
	repo repository.SettingRepository
	cfg  *config.Config
	log  *zap.SugaredLogger
}

func New(repo repository.Repository, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

var Module = fx.Options(
	fx.Provide(New),
)

func (s *Service) raw(ctx context.Context, key string) (string, bool, error) {
	st, err := s.repo.FindSetting(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return strings.TrimSpace(st.Value), true, nil
}

// MaxDonationUSD returns the donation ceiling in dollars.
func (s *Service) MaxDonationUSD(ctx context.Context) (float64, error) {
	fallback := s.cfg.Commerce.MaxDonationUSD
	if fallback <= 0 {
		fallback = money.DefaultMaxDonationUSD
	}

	v, ok, err := s.raw(ctx, KeyMaxDonationUSD)
	if err != nil || !ok {
		return fallback, err
	}
	f, perr := strconv.ParseFloat(v, 64)
	if perr != nil || f <= 0 {
		logctx.FromCtx(ctx, s.log).Warnw("setting_invalid", "key", KeyMaxDonationUSD, "value", v)
		return fallback, nil
	}
	return f, nil
}

// MembershipPrices returns per-plan price overrides keyed by plan slug. The
// setting is a JSON object whose values are dollar strings or numbers.
func (s *Service) MembershipPrices(ctx context.Context) (map[string]money.Cents, error) {
	v, ok, err := s.raw(ctx, KeyMembershipPrices)
	if err != nil || !ok || v == "" {
		return map[string]money.Cents{}, err
	}

	log := logctx.FromCtx(ctx, s.log)
	var raw map[string]money.Amount
	if err := json.Unmarshal([]byte(v), &raw); err != nil {
		log.Warnw("setting_invalid", "key", KeyMembershipPrices, "err", err)
		return map[string]money.Cents{}, nil
	}
	prices := make(map[string]money.Cents, len(raw))
	for slug, amount := range raw {
		c, err := amount.Cents(KeyMembershipPrices)
		if err != nil {
			log.Warnw("setting_invalid", "key", KeyMembershipPrices, "plan", slug, "err", err)
			continue
		}
		prices[strings.ToLower(strings.TrimSpace(slug))] = c
	}
	return prices, nil
}
