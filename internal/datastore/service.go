package datastore

import (
	"dsclient/internal/flags"
	"dsclient/internal/metrics"
	"dsclient/internal/ports"
	"dsclient/internal/types"

	log "github.com/sirupsen/logrus"
)

// Runtime variables read by the service.
const (
	FlagPcallFix           = "GetGlobalDataStorePcallFix"
	FlagLostDataFixEnable  = "DataStoreLostDataFixEnable"
	FlagV2Enabled          = "DataStoresV2Enabled"
	IntKeyLengthLimit      = "DataStoreKeyLengthLimit"
	IntCompressThreshold   = "DataStoreCompressThreshold"
	LogGroupDataStore      = "DataStore"
	DefaultKeyLengthLimit  = 50
	DefaultCompressAtBytes = 4096
)

const noContextMessage = "Place has to be opened with Edit button to access DataStores"

// Config identifies the execution context the service runs in.
type Config struct {
	PlaceID    int64
	UniverseID int64
	// EventTopic receives handle lifecycle events when a Publisher is set.
	EventTopic string
}

// Deps are the collaborators of the service. Flags and Backend are required;
// Probe, URLs and Pages are only needed for listing.
type Deps struct {
	Flags     *flags.Provider
	Backend   ports.DataBackend
	Probe     ports.CapabilityProbe
	URLs      ports.URLBuilder
	Pages     ports.PageFetcher
	Publisher ports.Publisher
	Metrics   *metrics.Metrics
	// Validator overrides the default name/scope validation.
	Validator Validator
	// Builder overrides the handles built on Backend.
	Builder HandleBuilder
}

// Service hands out store handles and lists stores. It owns the handle
// registry; one Service is meant to live as long as the process.
type Service struct {
	cfg       Config
	flags     *flags.Provider
	registry  *Registry
	probe     ports.CapabilityProbe
	urls      ports.URLBuilder
	pages     ports.PageFetcher
	publisher ports.Publisher
	metrics   *metrics.Metrics
	validate  Validator
}

func NewService(cfg Config, deps Deps) *Service {
	registerVariables(deps.Flags)

	s := &Service{
		cfg:       cfg,
		flags:     deps.Flags,
		probe:     deps.Probe,
		urls:      deps.URLs,
		pages:     deps.Pages,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		validate:  deps.Validator,
	}
	if s.validate == nil {
		s.validate = LengthValidator(deps.Flags)
	}
	build := deps.Builder
	if build == nil {
		build = NewBackendBuilder(cfg.UniverseID, deps.Backend, deps.Flags)
	}
	s.registry = NewRegistry(build, s.handleCreated)
	return s
}

func registerVariables(p *flags.Provider) {
	p.EnsureFlag(FlagPcallFix, false)
	p.EnsureFlag(FlagLostDataFixEnable, false)
	p.EnsureFlag(FlagV2Enabled, false)
	p.EnsureInt(IntKeyLengthLimit, DefaultKeyLengthLimit)
	p.EnsureInt(IntCompressThreshold, DefaultCompressAtBytes)
	p.EnsureLogGroup(LogGroupDataStore, 0)
}

// Registry exposes the handle registry, mainly for diagnostics.
func (s *Service) Registry() *Registry { return s.registry }

// GetDefaultStore returns the legacy store. Every call returns the same handle.
func (s *Service) GetDefaultStore() (ports.Handle, error) {
	if err := s.checkContext(); err != nil {
		s.metrics.HandleRequested(types.KindLegacy.String(), "rejected")
		return nil, err
	}
	h, fresh := s.registry.AcquireLegacy()
	s.metrics.HandleRequested(types.KindLegacy.String(), outcome(fresh))
	return h, nil
}

// GetStore returns the standard store for name and scope. An empty scope means
// types.DefaultScope. options may be nil; see resolveGeneration for how it
// selects the API generation. Nil options always yield a V1 handle, even with
// the DataStoresV2Enabled flag on.
func (s *Service) GetStore(name, scope string, options *types.DataStoreOptions) (ports.Handle, error) {
	if scope == "" {
		scope = types.DefaultScope
	}
	if err := s.validate(name, scope); err != nil {
		s.metrics.HandleRequested(types.KindStandard.String(), "rejected")
		return nil, err
	}
	gen, err := s.resolveGeneration(options)
	if err != nil {
		s.metrics.HandleRequested(types.KindStandard.String(), "rejected")
		return nil, err
	}
	allScopes := options != nil && options.AllScopes
	return s.getStandard(types.StoreKey{Name: name, Scope: scope}, gen, allScopes)
}

// GetOrderedStore returns the ordered store for name and scope. An empty scope
// means types.DefaultScope.
func (s *Service) GetOrderedStore(name, scope string) (ports.OrderedHandle, error) {
	if scope == "" {
		scope = types.DefaultScope
	}
	if err := s.validate(name, scope); err != nil {
		s.metrics.HandleRequested(types.KindOrdered.String(), "rejected")
		return nil, err
	}
	if err := s.checkContext(); err != nil {
		s.metrics.HandleRequested(types.KindOrdered.String(), "rejected")
		return nil, err
	}
	h, fresh := s.registry.AcquireOrdered(types.StoreKey{Name: name, Scope: scope})
	s.metrics.HandleRequested(types.KindOrdered.String(), outcome(fresh))
	return h, nil
}

func (s *Service) getStandard(key types.StoreKey, gen types.Generation, allScopes bool) (ports.Handle, error) {
	if err := s.checkContext(); err != nil {
		s.metrics.HandleRequested(types.KindStandard.String(), "rejected")
		return nil, err
	}
	h, fresh := s.registry.AcquireStandard(key, gen, allScopes)
	s.metrics.HandleRequested(types.KindStandard.String(), outcome(fresh))
	return h, nil
}

// checkContext fails when the process has no place to scope stores to. The
// error is fatal: retrying cannot succeed. With the pcall fix flag off the
// failure is also reported on the error log before being returned; the host
// process is never terminated from here.
func (s *Service) checkContext() error {
	if s.cfg.PlaceID >= 1 {
		return nil
	}
	err := types.Err(types.ErrPreconditionFatal, nil, noContextMessage)
	if !s.flags.GetFlag(FlagPcallFix) {
		log.WithField("place_id", s.cfg.PlaceID).Error(noContextMessage)
	}
	return err
}

func (s *Service) handleCreated(key types.StoreKey, kind types.StoreKind, gen types.Generation) {
	if kind == types.KindLegacy {
		s.flags.Logf(LogGroupDataStore, "[FLog::DataStore] Creating legacy data store")
	} else {
		s.flags.Logf(LogGroupDataStore, "[FLog::DataStore] Creating data store, name: %s", key.Name)
	}
	s.metrics.HandleCreated(kind.String(), gen.String())
	s.publishCreated(key, kind, gen)
}

func outcome(fresh bool) string {
	if fresh {
		return "created"
	}
	return "cached"
}
