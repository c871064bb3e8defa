// Package app assembles a datastore.Service from the process configuration.
package app

import (
	"context"
	"dsclient/internal/backends"
	"dsclient/internal/datastore"
	"dsclient/internal/flags"
	"dsclient/internal/metrics"
	"dsclient/internal/pub"
	"dsclient/internal/types"
	"dsclient/internal/webapi"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

type App struct {
	Config   types.AppConfig
	Flags    *flags.Provider
	Service  *datastore.Service
	Registry *prometheus.Registry

	clients *backends.Clients
}

// New connects the configured backends and builds the service. Close releases
// the connections.
func New(ctx context.Context, cfg types.AppConfig) (*App, error) {
	if cfg.LogLevel != "" {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, types.Err(types.ErrInvalidArgument, err, "")
		}
		log.SetLevel(level)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	clients := backends.NewClients(cfg)

	src, err := clients.SettingsSourceFromConfig(ctx)
	if err != nil {
		return nil, err
	}
	opts := []flags.Option{flags.WithRefreshInterval(cfg.SettingsRefresh), flags.WithMetrics(m)}
	if src != nil {
		opts = append(opts, flags.WithSource(src))
	}
	p := flags.NewProvider(opts...)
	// Registration is first-wins, so the defaults file must be loaded before
	// the service and the web API client register theirs.
	if cfg.DefaultsFile != "" {
		if err := flags.LoadDefaultsFile(p, cfg.DefaultsFile); err != nil {
			_ = clients.Close()
			return nil, err
		}
	}

	data, err := clients.DataBackendFromConfig(ctx)
	if err != nil {
		_ = clients.Close()
		return nil, err
	}

	deps := datastore.Deps{
		Flags:   p,
		Backend: data,
		Pages:   data,
		URLs:    backends.IndexURLs{},
		Probe:   webapi.StaticProbe(cfg.APIAccess),
		Metrics: m,
	}
	if cfg.APIBaseURL != "" {
		c := webapi.NewClient(cfg.APIBaseURL, p, webapi.WithAPIKey(cfg.APIKey))
		deps.Probe = webapi.Probe{Client: c, UniverseID: cfg.UniverseID}
		deps.URLs = c
		deps.Pages = c
	}

	svcCfg := datastore.Config{PlaceID: cfg.PlaceID, UniverseID: cfg.UniverseID}
	publisher, err := pub.NewSNSFromConfig(ctx, cfg)
	if err != nil {
		_ = clients.Close()
		return nil, err
	}
	if publisher != nil {
		deps.Publisher = publisher
		svcCfg.EventTopic = cfg.SNSTopicArn
	}

	log.WithFields(log.Fields{
		"place_id":         cfg.PlaceID,
		"universe_id":      cfg.UniverseID,
		"data_backend":     cfg.DataBackend,
		"settings_backend": cfg.SettingsBackend,
		"web_api":          cfg.APIBaseURL != "",
	}).Debug("datastore service configured")

	return &App{
		Config:   cfg,
		Flags:    p,
		Service:  datastore.NewService(svcCfg, deps),
		Registry: reg,
		clients:  clients,
	}, nil
}

func (a *App) Close() error {
	return a.clients.Close()
}
