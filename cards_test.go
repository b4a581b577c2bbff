/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Seednode/bingo/games/bingo"
	"github.com/Seednode/bingo/storage"
)

var (
	errUnreadable = errors.New("store unreadable")
	errUnwritable = errors.New("store unwritable")
)

// flakyKV fails every read while failing is set.
type flakyKV struct {
	*storage.Memory
	failing atomic.Bool
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failing.Load() {
		return nil, false, errUnreadable
	}

	return f.Memory.Get(ctx, key)
}

func savedCard() bingo.Board {
	b := bingo.DefaultBoard()
	for _, i := range []int{0, 1, 2, 3, 5, 6, 7, 8} {
		b[i] = true
	}

	return b
}

func newTestManager(t *testing.T, kv bingo.KV) (*cardManager, *bingo.Store) {
	t.Helper()

	store := bingo.NewStore(kv, nil)
	cm := newCardManager(store, 0)
	t.Cleanup(cm.stop)

	return cm, store
}

func TestCancelledFirstLoadKeepsSavedCard(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "cards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cm, store := newTestManager(t, db)
	require.NoError(t, store.Save(ctx, "player", savedCard()))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	hub, err := cm.getHub(cancelled, cfg, "player")
	require.NoError(t, err)

	state, err := hub.state()
	require.NoError(t, err)
	assert.Equal(t, savedCard(), state.Board)

	state, err = cm.toggle(ctx, cfg, "player", 24)
	require.NoError(t, err)
	assert.Equal(t, 10, state.Checked)

	want := savedCard()
	want[24] = true

	stored, err := store.Fetch(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, want, stored)
}

func TestFailedLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}

	kv := &flakyKV{Memory: storage.NewMemory()}
	cm, store := newTestManager(t, kv)
	require.NoError(t, store.Save(ctx, "player", savedCard()))

	kv.failing.Store(true)

	_, err := cm.getHub(ctx, cfg, "player")
	require.ErrorIs(t, err, errUnreadable)
	assert.Equal(t, 0, cm.active())

	_, err = cm.toggle(ctx, cfg, "player", 24)
	require.ErrorIs(t, err, errUnreadable)

	_, err = cm.reset(ctx, cfg, "player")
	require.ErrorIs(t, err, errUnreadable)
	assert.Equal(t, 0, cm.active())

	untouched, err := bingo.NewStore(kv.Memory, nil).Fetch(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, savedCard(), untouched)

	kv.failing.Store(false)

	state, err := cm.toggle(ctx, cfg, "player", 24)
	require.NoError(t, err)

	want := savedCard()
	want[24] = true
	assert.Equal(t, want, state.Board)
}

func TestUnreadableCardAnswersUnavailable(t *testing.T) {
	cfg := &Config{}

	kv := &flakyKV{Memory: storage.NewMemory()}
	kv.failing.Store(true)

	errs := make(chan error, 64)
	go drainErrors(cfg, errs)

	mux, cm := newRouter(cfg, bingo.NewStore(kv, nil), errs)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cm.stop()
	})

	client := newPlayer(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/state"},
		{http.MethodPost, "/api/squares/3"},
		{http.MethodPost, "/api/reset"},
		{http.MethodGet, "/card.png"},
	} {
		r, err := http.NewRequest(req.method, srv.URL+req.path, nil)
		require.NoError(t, err)

		res, err := client.Do(r)
		require.NoError(t, err)
		res.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode, req.path)
		assert.Equal(t, "1", res.Header.Get("Retry-After"), req.path)
	}

	_, res, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	assert.Equal(t, 0, cm.active())

	kv.failing.Store(false)
	assert.Equal(t, bingo.DefaultBoard(), getCard(t, client, srv.URL).Board)
	assert.Equal(t, 1, cm.active())
}

func TestReapedHubRejectsWrites(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}

	cm, store := newTestManager(t, storage.NewMemory())

	stale, err := cm.getHub(ctx, cfg, "player")
	require.NoError(t, err)

	cm.reap(time.Now().Add(time.Hour))
	require.Equal(t, 0, cm.active())

	_, err = stale.toggle(ctx, cfg, 0)
	require.ErrorIs(t, err, errHubStopped)
	_, err = stale.reset(ctx, cfg)
	require.ErrorIs(t, err, errHubStopped)

	state, err := cm.toggle(ctx, cfg, "player", 1)
	require.NoError(t, err)
	assert.False(t, state.Board[0])
	assert.True(t, state.Board[1])

	fresh, err := cm.getHub(ctx, cfg, "player")
	require.NoError(t, err)
	assert.NotSame(t, stale, fresh)

	stored, err := store.Fetch(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, state.Board, stored)
}

func TestTogglesSurviveConcurrentReaps(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}

	cm, store := newTestManager(t, storage.NewMemory())

	done := make(chan struct{})
	reaped := make(chan struct{})
	go func() {
		defer close(reaped)

		for {
			select {
			case <-done:
				return
			default:
				cm.reap(time.Now().Add(time.Hour))
				time.Sleep(time.Millisecond)
			}
		}
	}()

	var wg sync.WaitGroup
	for i := range bingo.Cells {
		if i == bingo.Center {
			continue
		}

		wg.Go(func() {
			_, err := cm.toggle(ctx, cfg, "player", i)
			assert.NoError(t, err, "square %d", i)
		})
	}
	wg.Wait()

	close(done)
	<-reaped

	var full bingo.Board
	for i := range full {
		full[i] = true
	}

	stored, err := store.Fetch(ctx, "player")
	require.NoError(t, err)
	assert.Equal(t, full, stored)
}

func TestReapKeepsConnectedTabs(t *testing.T) {
	srv := newTestServer(t, &Config{})
	client := newPlayer(t)
	getCard(t, client, srv.URL)

	conn := dialCard(t, srv, client)
	readState(t, conn)

	srv.cm.reap(time.Now().Add(time.Hour))
	require.Equal(t, 1, srv.cm.active())

	toggle(t, client, srv.URL, 3)
	assert.True(t, readState(t, conn).Board[3])

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		srv.cm.reap(time.Now().Add(time.Hour))

		return srv.cm.active() == 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, getCard(t, client, srv.URL).Board[3])
}

func TestReaperWithTinyTimeout(t *testing.T) {
	store := bingo.NewStore(storage.NewMemory(), nil)
	cm := newCardManager(store, time.Nanosecond)
	t.Cleanup(cm.stop)

	_, err := cm.getHub(context.Background(), &Config{}, "player")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return cm.active() == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestErrorsLogWithoutLevelPrefix(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cfg := &Config{logger: zap.New(core).Sugar()}

	errs := make(chan error, 1)
	errs <- errors.New("disk full")
	close(errs)
	drainErrors(cfg, errs)

	cm, _ := newTestManager(t, failingWrites{storage.NewMemory()})

	state, err := cm.toggle(context.Background(), cfg, "player", 0)
	require.NoError(t, err)
	assert.True(t, state.Board[0])

	entries := logs.FilterLevelExact(zap.ErrorLevel).All()
	require.Len(t, entries, 2)
	assert.Equal(t, "SERVE: disk full", entries[0].Message)
	assert.True(t, strings.HasPrefix(entries[1].Message, "STORE: saving board for player"), entries[1].Message)

	for _, e := range logs.All() {
		assert.NotContains(t, e.Message, "ERROR:")
	}
}

// failingWrites reads normally but refuses every write.
type failingWrites struct {
	*storage.Memory
}

func (failingWrites) Set(context.Context, string, []byte) error {
	return errUnwritable
}
