package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/patron/internal/app/api/server"
	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/app/service/attribution"
	"github.com/fatflowers/patron/internal/app/service/checkout"
	"github.com/fatflowers/patron/internal/app/service/contact"
	"github.com/fatflowers/patron/internal/app/service/email"
	"github.com/fatflowers/patron/internal/app/service/eventlog"
	"github.com/fatflowers/patron/internal/app/service/ledger"
	"github.com/fatflowers/patron/internal/app/service/membership"
	"github.com/fatflowers/patron/internal/app/service/settings"
	"github.com/fatflowers/patron/internal/app/service/statistics"
	"github.com/fatflowers/patron/internal/app/service/subscription"
	"github.com/fatflowers/patron/internal/app/service/webhook"
	"github.com/fatflowers/patron/internal/platform/db"
	"github.com/fatflowers/patron/internal/platform/lock"
	"github.com/fatflowers/patron/internal/platform/mailer"
	"github.com/fatflowers/patron/internal/platform/stripe"
	"github.com/fatflowers/patron/pkg/config"
	"github.com/fatflowers/patron/pkg/logger"
	"github.com/fatflowers/patron/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	repository.Module,
	stripe.Module,
	mailer.Module,
	lock.Module,
	settings.Module,
	contact.Module,
	attribution.Module,
	ledger.Module,
	membership.Module,
	email.Module,
	eventlog.Module,
	checkout.Module,
	webhook.Module,
	subscription.Module,
	statistics.Module,
	server.Module,
)
