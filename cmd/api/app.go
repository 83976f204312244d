package main

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/edconsult-leads/internal/config"
	"github.com/xavierca1/edconsult-leads/internal/conversion"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"github.com/xavierca1/edconsult-leads/internal/infra/database"
	"github.com/xavierca1/edconsult-leads/internal/infra/http/handlers"
	"github.com/xavierca1/edconsult-leads/internal/infra/http/middleware"
	"github.com/xavierca1/edconsult-leads/internal/infra/integration/gtm"
	"github.com/xavierca1/edconsult-leads/internal/infra/integration/kommo"
	"github.com/xavierca1/edconsult-leads/internal/infra/integration/meta"
	"github.com/xavierca1/edconsult-leads/internal/infra/mail"
	"github.com/xavierca1/edconsult-leads/internal/infra/memory"
	"github.com/xavierca1/edconsult-leads/internal/infra/mongodb"
	"github.com/xavierca1/edconsult-leads/internal/infra/queue"
	"github.com/xavierca1/edconsult-leads/internal/usecase"
)

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// store is the configured lead repository plus what main needs to manage it.
type store struct {
	repo   entity.LeadRepository
	schema schemaEnsurer
	ping   handlers.Check
	close  func(ctx context.Context) error
}

func openStore(c config.StoreConfig) (*store, error) {
	switch c.Driver {
	case "mongo":
		client := mongodb.NewClient(c.MongoURI, c.MongoDatabase, c.Timeout)
		repo := mongodb.NewLeadRepository(client, mongodb.DefaultCollection)
		return &store{repo: repo, schema: repo, ping: client.Ping, close: client.Close}, nil
	case "postgres":
		pool := database.NewPool(c.PostgresDSN, database.PoolConfig{MaxConns: c.MaxConns})
		repo := database.NewLeadRepository(pool)
		return &store{
			repo:   repo,
			schema: repo,
			ping:   pool.Ping,
			close:  func(context.Context) error { pool.Close(); return nil },
		}, nil
	case "memory":
		return &store{
			repo:  memory.NewLeadRepository(),
			ping:  func(context.Context) error { return nil },
			close: func(context.Context) error { return nil },
		}, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", c.Driver)
	}
}

func newDispatcher(c config.ConversionConfig, siteURL string, logger *zap.Logger) *conversion.Dispatcher {
	hc := &http.Client{Timeout: c.Timeout}

	d := conversion.NewDispatcher(logger,
		conversion.Options{
			Currency:      c.Currency,
			SiteURL:       siteURL,
			DefaultRegion: c.DefaultRegion,
			Timeout:       c.Timeout,
		},
		meta.NewClient(c.Meta.PixelID, c.Meta.AccessToken,
			meta.WithAPIVersion(c.Meta.APIVersion),
			meta.WithTestEventCode(c.Meta.TestEventCode),
			meta.WithHTTPClient(hc),
		),
		gtm.NewClient(c.GTM.RelayURL, c.GTM.APIKey, gtm.WithHTTPClient(hc)),
	)
	d.OnResult = func(pr conversion.PlatformResult) {
		middleware.RecordConversion(pr.Platform, pr.Success, pr.TestMode)
	}
	return d
}

func newNotifiers(cfg *config.Config, logger *zap.Logger) usecase.Notifiers {
	var ns usecase.Notifiers

	sender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password,
		cfg.Mail.From, cfg.Mail.To, cfg.Mail.AdminURL)
	if sender.Enabled() {
		ns = append(ns, sender)
	} else {
		logger.Info("staff e-mail disabled: no SMTP host or recipients configured")
	}

	crm := kommo.NewClient(cfg.CRM.BaseURL, cfg.CRM.APIToken,
		kommo.WithPipeline(cfg.CRM.PipelineID, cfg.CRM.StatusID),
		kommo.WithLogger(logger),
	)
	if crm.Enabled() {
		ns = append(ns, crm)
	}
	return ns
}

// app wires everything the serve command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	store      *store
	background *conversion.Background
	broker     *queue.RabbitMQ

	captureLead  *usecase.CaptureLeadUseCase
	updateStatus *usecase.UpdateLeadStatusUseCase
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, store: st}

	var publisher usecase.ConversionPublisher
	switch cfg.Conversion.Mode {
	case "queue":
		broker, err := queue.NewRabbitMQ(cfg.Queue.URL)
		if err != nil {
			_ = st.close(context.Background())
			return nil, err
		}
		a.broker = broker
		publisher = queue.NewProducer(broker.Ch)
	default:
		a.background = conversion.NewBackground(newDispatcher(cfg.Conversion, cfg.App.SiteURL, logger), logger)
		publisher = a.background
	}

	var notifier usecase.LeadNotifier
	if ns := newNotifiers(cfg, logger); len(ns) > 0 {
		notifier = ns
	}

	a.captureLead = usecase.NewCaptureLeadUseCase(st.repo, publisher, notifier, logger, cfg.Store.Timeout)
	a.updateStatus = usecase.NewUpdateLeadStatusUseCase(st.repo, publisher, logger, cfg.Store.Timeout)
	return a, nil
}

func (a *app) healthChecks() map[string]handlers.Check {
	checks := map[string]handlers.Check{
		"store": a.store.ping,
		"queue": nil,
	}
	if a.broker != nil {
		checks["queue"] = func(context.Context) error {
			if !a.broker.Healthy() {
				return eris.New("rabbitmq connection closed")
			}
			return nil
		}
	}
	return checks
}

// Close waits for in-flight background work, then releases connections.
func (a *app) Close(ctx context.Context) {
	a.captureLead.Wait()
	if a.background != nil {
		a.background.Wait()
	}
	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.logger.Warn("closing rabbitmq", zap.Error(err))
		}
	}
	if err := a.store.close(ctx); err != nil {
		a.logger.Warn("closing store", zap.Error(err))
	}
}
