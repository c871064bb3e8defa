package flags

import (
	"context"
	"dsclient/internal/metrics"
	"dsclient/internal/ports"
	"dsclient/internal/types"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultFetchTimeout    = 2 * time.Second

	// logGroupThreshold is the level a log group must exceed to be printed.
	logGroupThreshold = 5

	liveKey = "live"
	failKey = "fail"
)

// Tier names the source that answered a lookup.
type Tier int

const (
	TierDefault Tier = iota
	TierCached
	TierLive
)

func (t Tier) String() string {
	switch t {
	case TierLive:
		return "live"
	case TierCached:
		return "cached"
	default:
		return "default"
	}
}

// Provider resolves runtime variables by name. Every lookup walks three tiers:
//
//  1. live: the snapshot last fetched from the SettingsSource, for as long as it
//     is younger than the refresh interval. An expired snapshot triggers a fetch.
//  2. cached: every value any successful fetch has carried, most recent wins.
//     Used when the fetch fails or the live snapshot does not carry the name.
//  3. default: the value registered with one of the Ensure methods, or the zero
//     value for names nobody registered.
//
// Presence decides the tier, not the value: a live false beats a cached true.
type Provider struct {
	source  ports.SettingsSource
	refresh time.Duration
	timeout time.Duration
	metrics *metrics.Metrics

	live    *TTL[string, types.Settings]
	fetchMu sync.Mutex

	mu       sync.RWMutex
	defaults types.Settings
	cached   types.Settings
}

type Option func(*Provider)

func WithSource(src ports.SettingsSource) Option {
	return func(p *Provider) { p.source = src }
}

func WithRefreshInterval(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.refresh = d
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		refresh:  DefaultRefreshInterval,
		timeout:  DefaultFetchTimeout,
		live:     NewTTL[string, types.Settings](),
		defaults: types.NewSettings(),
		cached:   types.NewSettings(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// --------------------------------------------------------------------------
// Registration
// --------------------------------------------------------------------------

// EnsureFlag registers the static default for a flag. The first registration wins.
func (p *Provider) EnsureFlag(name string, def bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.defaults.Flags[name]; !ok {
		p.defaults.Flags[name] = def
	}
}

func (p *Provider) EnsureInt(name string, def int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.defaults.Ints[name]; !ok {
		p.defaults.Ints[name] = def
	}
}

func (p *Provider) EnsureString(name string, def string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.defaults.Strings[name]; !ok {
		p.defaults.Strings[name] = def
	}
}

func (p *Provider) EnsureLogGroup(name string, def int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.defaults.LogLevels[name]; !ok {
		p.defaults.LogLevels[name] = def
	}
}

// RegisterDefaults ensures every variable carried by s.
func (p *Provider) RegisterDefaults(s types.Settings) {
	for k, v := range s.Flags {
		p.EnsureFlag(k, v)
	}
	for k, v := range s.Ints {
		p.EnsureInt(k, v)
	}
	for k, v := range s.Strings {
		p.EnsureString(k, v)
	}
	for k, v := range s.LogLevels {
		p.EnsureLogGroup(k, v)
	}
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

func (p *Provider) GetFlag(name string) bool {
	v, _ := p.ResolveFlag(name)
	return v
}

func (p *Provider) GetInt(name string) int64 {
	v, _ := p.ResolveInt(name)
	return v
}

func (p *Provider) GetString(name string) string {
	v, _ := p.ResolveString(name)
	return v
}

func (p *Provider) GetLogLevel(name string) int {
	v, _ := p.ResolveLogLevel(name)
	return v
}

func (p *Provider) ResolveFlag(name string) (bool, Tier) {
	return resolve(p, name, func(s types.Settings) map[string]bool { return s.Flags })
}

func (p *Provider) ResolveInt(name string) (int64, Tier) {
	return resolve(p, name, func(s types.Settings) map[string]int64 { return s.Ints })
}

func (p *Provider) ResolveString(name string) (string, Tier) {
	return resolve(p, name, func(s types.Settings) map[string]string { return s.Strings })
}

func (p *Provider) ResolveLogLevel(name string) (int, Tier) {
	return resolve(p, name, func(s types.Settings) map[string]int { return s.LogLevels })
}

func resolve[V any](p *Provider, name string, pick func(types.Settings) map[string]V) (V, Tier) {
	if live, ok := p.liveSnapshot(); ok {
		if v, found := pick(live)[name]; found {
			p.metrics.FlagResolved(TierLive.String())
			return v, TierLive
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, found := pick(p.cached)[name]; found {
		p.metrics.FlagResolved(TierCached.String())
		return v, TierCached
	}
	p.metrics.FlagResolved(TierDefault.String())
	return pick(p.defaults)[name], TierDefault
}

// liveSnapshot returns the live snapshot, fetching a new one when the last has
// expired. A failed fetch is not retried until the refresh interval passes.
func (p *Provider) liveSnapshot() (types.Settings, bool) {
	if p.source == nil {
		return types.Settings{}, false
	}
	if s, ok := p.live.Get(liveKey); ok {
		return s, true
	}
	if _, failed := p.live.Get(failKey); failed {
		return types.Settings{}, false
	}

	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	if s, ok := p.live.Get(liveKey); ok {
		return s, true
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	s, err := p.source.FetchSettings(ctx)
	p.metrics.SettingsFetched(err == nil)
	if err != nil {
		log.WithError(err).Warn("failed to fetch live settings, using cached values")
		p.live.Set(failKey, types.Settings{}, p.refresh)
		return types.Settings{}, false
	}
	s = s.Clone()
	p.live.Set(liveKey, s, p.refresh)
	p.live.Delete(failKey)

	p.mu.Lock()
	merge(p.cached, s)
	p.mu.Unlock()
	return s, true
}

// Invalidate forces the next lookup to fetch from the source.
func (p *Provider) Invalidate() {
	p.live.Delete(liveKey)
	p.live.Delete(failKey)
}

func merge(dst, src types.Settings) {
	for k, v := range src.Flags {
		dst.Flags[k] = v
	}
	for k, v := range src.Ints {
		dst.Ints[k] = v
	}
	for k, v := range src.Strings {
		dst.Strings[k] = v
	}
	for k, v := range src.LogLevels {
		dst.LogLevels[k] = v
	}
}

// --------------------------------------------------------------------------
// Log groups
// --------------------------------------------------------------------------

// LogEnabled reports whether the diagnostic log group is switched on.
func (p *Provider) LogEnabled(group string) bool {
	return p.GetLogLevel(group) > logGroupThreshold
}

// Logf prints a diagnostic line for group when the group is enabled.
func (p *Provider) Logf(group string, format string, args ...any) {
	if !p.LogEnabled(group) {
		return
	}
	log.WithField("group", group).Infof(format, args...)
}
