package screen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/qepting91/recordsync/internal/collector"
	"github.com/qepting91/recordsync/internal/domain"
	"github.com/qepting91/recordsync/internal/reconcile"
	"github.com/qepting91/recordsync/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// scriptedSource returns its responses in order, then repeats the last one.
type scriptedSource struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []domain.Kind
}

func (s *scriptedSource) Fetch(_ context.Context, kind domain.Kind) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, kind)
	if s.err != nil {
		return nil, s.err
	}
	body := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return reconcile.DecodeOrEmpty(body), nil
}

type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func (failingStore) Remove(context.Context, string) error {
	return errors.New("read-only")
}

func records(t *testing.T, payload string) domain.Collection {
	t.Helper()
	c, err := reconcile.Decode(payload)
	require.NoError(t, err)
	return c
}

func cached(t *testing.T, store domain.Store) domain.Collection {
	t.Helper()
	payload, found, err := store.Get(context.Background(), "localData")
	require.NoError(t, err)
	if !found {
		return nil
	}
	return records(t, payload)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	src := &scriptedSource{responses: []string{
		`[{"id":1,"title":"one","body":"a"},{"id":2,"title":"two","body":"b"}]`,
		`[{"id":2,"title":"two v2"},{"id":3,"title":"three","body":"c"}]`,
	}}
	s := New(src, store, Options{Serialize: true, Logger: quiet})

	assert.Empty(t, s.Load(ctx))
	assert.Empty(t, s.Items())
	assert.Equal(t, Idle, s.State())

	first := s.Fetch(ctx, domain.KindPosts)
	want := records(t, `[{"id":1,"title":"one","body":"a"},{"id":2,"title":"two","body":"b"}]`)
	assert.Empty(t, cmp.Diff(want, first))
	assert.Empty(t, cmp.Diff(want, s.Items()))
	assert.Empty(t, cmp.Diff(want, cached(t, store)))

	second := s.Fetch(ctx, domain.KindPosts)
	want = records(t, `[{"id":2,"title":"two v2","body":"b"},{"id":3,"title":"three","body":"c"}]`)
	assert.Empty(t, cmp.Diff(want, second))
	assert.Empty(t, cmp.Diff(want, s.Items()))
	assert.Empty(t, cmp.Diff(want, cached(t, store)))

	s.Delete(ctx)
	assert.Empty(t, s.Items())
	assert.Nil(t, cached(t, store))
	assert.Equal(t, Idle, s.State())
}

func TestLoadReadsExistingCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "localData", `[{"id":"u1","name":"Ann","email":"a@x"}]`))

	s := New(&scriptedSource{}, store, Options{Logger: quiet})
	items := s.Load(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "Ann", items[0].Label())
}

func TestLoadMalformedCacheShowsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "localData", `{broken`))

	s := New(&scriptedSource{responses: []string{`[{"id":1,"title":"x"}]`}}, store, Options{Logger: quiet})
	assert.Empty(t, s.Load(ctx))

	// the unreadable payload acts as no prior data and gets replaced
	got := s.Fetch(ctx, domain.KindPosts)
	assert.Empty(t, cmp.Diff(records(t, `[{"id":1,"title":"x"}]`), got))
	assert.Empty(t, cmp.Diff(got, cached(t, store)))
}

func TestFetchFailureShowsEmptyAndKeepsCache(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "localData", `[{"id":1,"title":"kept"}]`))

	src := &scriptedSource{err: &collector.NetworkError{Kind: domain.KindUsers, URL: "http://x", StatusCode: 500}}
	s := New(src, store, Options{Logger: quiet})
	s.Load(ctx)
	require.Len(t, s.Items(), 1)

	assert.Empty(t, s.Fetch(ctx, domain.KindUsers))
	assert.Empty(t, s.Items())
	assert.Len(t, cached(t, store), 1)
	assert.Equal(t, []domain.Kind{domain.KindUsers}, src.calls)
}

func TestSwitchingKindsSharesOneSlot(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	src := &scriptedSource{responses: []string{
		`[{"id":1,"title":"post"}]`,
		`[{"id":1,"name":"user","email":"u@x"},{"id":2,"name":"other","email":"o@x"}]`,
	}}
	s := New(src, store, Options{Logger: quiet})

	s.Fetch(ctx, domain.KindPosts)
	got := s.Fetch(ctx, domain.KindUsers)

	// id 1 overlaps so the post title survives on the user record
	want := records(t, `[{"id":1,"title":"post","name":"user","email":"u@x"},{"id":2,"name":"other","email":"o@x"}]`)
	assert.Empty(t, cmp.Diff(want, got))
}

func TestStoreFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	store := failingStore{storage.NewMemoryStore()}
	s := New(&scriptedSource{responses: []string{`[{"id":1,"title":"x"}]`}}, store, Options{Logger: quiet})

	got := s.Fetch(ctx, domain.KindPosts)
	assert.Len(t, got, 1)
	assert.Len(t, s.Items(), 1)

	s.Delete(ctx)
	assert.Empty(t, s.Items())
}

func TestUpdatePersistsLocalEdits(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	src := &scriptedSource{responses: []string{`[{"id":1,"title":"x"}]`}}
	s := New(src, store, Options{Logger: quiet})
	s.Fetch(ctx, domain.KindPosts)

	s.Update(ctx, func(c domain.Collection) domain.Collection {
		c[0]["starred"] = true
		return c
	})

	got := s.Fetch(ctx, domain.KindPosts)
	require.Len(t, got, 1)
	assert.Equal(t, true, got[0]["starred"])
	assert.Equal(t, json.Number("1"), got[0]["id"])
}

// blockingSource parks each call until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	body    string
}

func (b *blockingSource) Fetch(ctx context.Context, _ domain.Kind) (domain.Collection, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return reconcile.DecodeOrEmpty(b.body), nil
}

func TestStateIsLoadingDuringFetch(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}, 1), release: make(chan struct{}), body: `[{"id":1}]`}
	s := New(src, storage.NewMemoryStore(), Options{Serialize: true, Logger: quiet})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Fetch(context.Background(), domain.KindPosts)
	}()

	<-src.started
	assert.Equal(t, Loading, s.State())
	assert.Equal(t, "loading", s.State().String())

	close(src.release)
	<-done
	assert.Equal(t, Idle, s.State())
	assert.Len(t, s.Items(), 1)
}

func TestSerializedActionsDoNotInterleave(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}, 2), release: make(chan struct{}), body: `[{"id":1}]`}
	s := New(src, storage.NewMemoryStore(), Options{Serialize: true, Logger: quiet})

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Fetch(context.Background(), domain.KindPosts)
		}()
	}

	<-src.started
	select {
	case <-src.started:
		t.Fatal("second fetch started while the first held the action lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(src.release)
	<-src.started
	wg.Wait()
	assert.Equal(t, Idle, s.State())
}

func TestUnserializedActionsOverlap(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}, 2), release: make(chan struct{}), body: `[{"id":1}]`}
	s := New(src, storage.NewMemoryStore(), Options{Serialize: false, Logger: quiet})

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Fetch(context.Background(), domain.KindPosts)
		}()
	}

	<-src.started
	<-src.started
	assert.Equal(t, Loading, s.State())

	close(src.release)
	wg.Wait()
	assert.Equal(t, Idle, s.State())
}
