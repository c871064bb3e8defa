package flags

import (
	"context"
	"dsclient/internal/types"
	"sync"
	"sync/atomic"
)

// StaticSource is an in-memory SettingsSource. It is used when no remote source
// is configured, and by tests.
type StaticSource struct {
	mu      sync.Mutex
	s       types.Settings
	err     error
	fetches atomic.Int64
}

func NewStaticSource() *StaticSource {
	return &StaticSource{s: types.NewSettings()}
}

func (st *StaticSource) FetchSettings(_ context.Context) (types.Settings, error) {
	st.fetches.Add(1)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.err != nil {
		return types.Settings{}, st.err
	}
	return st.s.Clone(), nil
}

func (st *StaticSource) SetFlag(name string, v bool) {
	st.mu.Lock()
	st.s.Flags[name] = v
	st.mu.Unlock()
}

func (st *StaticSource) SetInt(name string, v int64) {
	st.mu.Lock()
	st.s.Ints[name] = v
	st.mu.Unlock()
}

func (st *StaticSource) SetString(name string, v string) {
	st.mu.Lock()
	st.s.Strings[name] = v
	st.mu.Unlock()
}

func (st *StaticSource) SetLogLevel(name string, v int) {
	st.mu.Lock()
	st.s.LogLevels[name] = v
	st.mu.Unlock()
}

// Unset removes name from every class.
func (st *StaticSource) Unset(name string) {
	st.mu.Lock()
	delete(st.s.Flags, name)
	delete(st.s.Ints, name)
	delete(st.s.Strings, name)
	delete(st.s.LogLevels, name)
	st.mu.Unlock()
}

// FailWith makes subsequent fetches return err; nil restores normal behaviour.
func (st *StaticSource) FailWith(err error) {
	st.mu.Lock()
	st.err = err
	st.mu.Unlock()
}

func (st *StaticSource) Fetches() int64 { return st.fetches.Load() }
