// Package screen drives the record list: it loads the cache, runs fetch and
// delete actions, and holds the collection currently on display.
package screen

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/qepting91/recordsync/internal/domain"
	"github.com/qepting91/recordsync/internal/reconcile"
)

// EmptyMessage is shown whenever there is nothing to display.
const EmptyMessage = "No data available. Please fetch or refresh data."

type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Options tunes a Screen. The zero value is usable.
type Options struct {
	// CacheKey is the single slot shared by every kind.
	CacheKey string
	// Serialize holds a lock for the whole of each action. Without it two
	// overlapping actions can interleave their cache read and write, and the
	// last write wins.
	Serialize bool
	Logger    *slog.Logger
}

type Screen struct {
	source domain.Source
	store  domain.Store
	key    string
	logger *slog.Logger

	serialize bool
	action    sync.Mutex

	mu       sync.RWMutex
	items    domain.Collection
	inFlight int
}

func New(source domain.Source, store domain.Store, o Options) *Screen {
	if o.CacheKey == "" {
		o.CacheKey = "localData"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Screen{
		source:    source,
		store:     store,
		key:       o.CacheKey,
		logger:    o.Logger,
		serialize: o.Serialize,
		items:     domain.Collection{},
	}
}

// Items returns a copy of the collection on display.
func (s *Screen) Items() domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Screen) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.inFlight > 0 {
		return Loading
	}
	return Idle
}

// Load shows whatever the cache holds. Missing or unreadable data shows as
// an empty list.
func (s *Screen) Load(ctx context.Context) domain.Collection {
	done := s.begin()
	defer done()

	items := s.readCache(ctx)
	s.show(items)
	return items
}

// Fetch retrieves kind from the source, merges it over the cache, writes the
// result back and shows it. A failed fetch shows an empty list and leaves the
// cache untouched.
func (s *Screen) Fetch(ctx context.Context, kind domain.Kind) domain.Collection {
	done := s.begin()
	defer done()

	cached := s.readCache(ctx)

	remote, err := s.source.Fetch(ctx, kind)
	if err != nil {
		s.logger.Error("Fetch failed", "kind", kind, "err", err)
		s.show(domain.Collection{})
		return domain.Collection{}
	}

	merged := reconcile.Reconcile(remote, cached)
	s.writeCache(ctx, merged)
	s.logger.Info("Fetched records", "kind", kind, "remote", len(remote), "cached", len(cached))

	s.show(merged)
	return merged
}

// Delete clears the cache and the display.
func (s *Screen) Delete(ctx context.Context) {
	done := s.begin()
	defer done()

	if err := s.store.Remove(ctx, s.key); err != nil {
		s.logger.Error("Delete local data failed", "key", s.key, "err", err)
	} else {
		s.logger.Info("Local data deleted", "key", s.key)
	}
	s.show(domain.Collection{})
}

// Update applies fn to the cached collection and persists its result. It is
// the path for local edits that later fetches should preserve.
func (s *Screen) Update(ctx context.Context, fn func(domain.Collection) domain.Collection) domain.Collection {
	done := s.begin()
	defer done()

	items := fn(s.readCache(ctx))
	if items == nil {
		items = domain.Collection{}
	}
	s.writeCache(ctx, items)
	s.show(items)
	return items
}

func (s *Screen) begin() func() {
	if s.serialize {
		s.action.Lock()
	}
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
		if s.serialize {
			s.action.Unlock()
		}
	}
}

func (s *Screen) show(items domain.Collection) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *Screen) readCache(ctx context.Context) domain.Collection {
	payload, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("Read local data failed", "key", s.key, "err", err)
		return domain.Collection{}
	}
	if !found {
		return domain.Collection{}
	}
	items, err := reconcile.Decode(payload)
	if err != nil {
		s.logger.Warn("Discarding unreadable local data", "key", s.key, "err", err)
	}
	return items
}

func (s *Screen) writeCache(ctx context.Context, items domain.Collection) {
	payload, err := reconcile.Encode(items)
	if err == nil {
		err = s.store.Set(ctx, s.key, payload)
	}
	if err != nil {
		s.logger.Error("Write local data failed", "key", s.key, "err", err)
	}
}
