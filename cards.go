/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Each browser is identified by a cookie, and owns exactly one card.
// The card is held by a hub while the player is active, so that every open
// tab shares one board: mutations are serialized by the hub and the new
// state is pushed to each tab over a websocket.
// Idle hubs are reaped; their boards remain in the store.

package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Seednode/bingo/games/bingo"
)

const playerCookieName = "bingo_id"

// StateMessage is the full card state, sent on connect and after every change.
type StateMessage struct {
	Type    string      `json:"type"`    // "state"
	Board   bingo.Board `json:"board"`   // check state per square
	Bingo   bool        `json:"bingo"`   // any line complete
	Lines   []int       `json:"lines"`   // indices into bingo.Lines of complete lines
	Checked int         `json:"checked"` // number of checked squares
}

// ClientMessage is what tabs may send over the websocket.
type ClientMessage struct {
	Type  string `json:"type"`            // "toggle" or "reset"
	Index *int   `json:"index,omitempty"` // toggle
}

// ErrorMessage is sent to a single tab whose request could not be applied.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func newStateMessage(b bingo.Board) StateMessage {
	return StateMessage{
		Type:    "state",
		Board:   b,
		Bingo:   bingo.HasBingo(b),
		Lines:   bingo.WinningLines(b),
		Checked: b.Checked(),
	}
}

type cardClient struct {
	conn *websocket.Conn
	send chan any
}

// errHubStopped is returned by a hub that has been reaped. Callers fetch a
// fresh hub from the manager and try again.
var errHubStopped = errors.New("card hub stopped")

const (
	loadTimeout = 5 * time.Second

	minReapInterval = time.Second
)

type cardHub struct {
	playerID string
	store    *bingo.Store

	register chan *cardClient
	unreg    chan *cardClient
	done     chan struct{}
	stopOnce sync.Once

	mu         sync.Mutex
	clients    map[*cardClient]bool
	board      bingo.Board
	lastActive time.Time
	stopped    bool
}

func newCardHub(playerID string, store *bingo.Store, board bingo.Board) *cardHub {
	return &cardHub{
		playerID:   playerID,
		store:      store,
		register:   make(chan *cardClient),
		unreg:      make(chan *cardClient),
		done:       make(chan struct{}),
		clients:    make(map[*cardClient]bool),
		board:      board,
		lastActive: time.Now(),
	}
}

func (h *cardHub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.sendLocked(c, newStateMessage(h.board))
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			return
		}
	}
}

// stop marks the hub stopped under its lock, so no write can land after
// the manager has forgotten it, then ends the run loop.
func (h *cardHub) stop() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()

	h.stopOnce.Do(func() { close(h.done) })
}

// stopIfIdle stops the hub if no tab is connected and nothing has touched
// it since cutoff.
func (h *cardHub) stopIfIdle(cutoff time.Time) bool {
	h.mu.Lock()
	if len(h.clients) > 0 || !h.lastActive.Before(cutoff) {
		h.mu.Unlock()

		return false
	}
	h.stopped = true
	h.mu.Unlock()

	h.stopOnce.Do(func() { close(h.done) })

	return true
}

// join hands c to the run loop, failing if the hub has been stopped.
func (h *cardHub) join(c *cardClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *cardHub) leave(c *cardClient) {
	select {
	case h.unreg <- c:
	case <-h.done:
	}
}

// sendLocked queues msg for c, dropping clients that cannot keep up.
func (h *cardHub) sendLocked(c *cardClient, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *cardHub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

func (h *cardHub) state() (StateMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return StateMessage{}, errHubStopped
	}

	h.lastActive = time.Now()

	return newStateMessage(h.board), nil
}

// toggle flips one square. A failed write is logged and the card still
// changes, so play continues even when the store is unavailable.
func (h *cardHub) toggle(ctx context.Context, cfg *Config, index int) (StateMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return StateMessage{}, errHubStopped
	}

	h.lastActive = time.Now()

	next, err := h.store.Toggle(ctx, h.playerID, h.board, index)
	switch {
	case errors.Is(err, bingo.ErrInvalidSquare):
		return newStateMessage(h.board), err
	case err != nil:
		errorf(cfg, "STORE: %v", err)
	}

	was := bingo.HasBingo(h.board)
	h.board = next
	msg := newStateMessage(h.board)

	if msg.Bingo && !was {
		logf(cfg, "CARDS: %s got a bingo with %d squares", h.playerID, msg.Checked)
	}

	h.broadcastLocked(msg)

	return msg, nil
}

func (h *cardHub) reset(ctx context.Context, cfg *Config) (StateMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return StateMessage{}, errHubStopped
	}

	h.lastActive = time.Now()

	board, err := h.store.Reset(ctx, h.playerID)
	if err != nil {
		errorf(cfg, "STORE: %v", err)
	}

	h.board = board
	msg := newStateMessage(h.board)

	logf(cfg, "CARDS: %s reset their card", h.playerID)

	h.broadcastLocked(msg)

	return msg, nil
}

// cardManager holds the active hubs keyed by player ID.
type cardManager struct {
	mu          sync.Mutex
	hubs        map[string]*cardHub
	removed     uint64 // hubs dropped so far, to detect a reap during a load
	store       *bingo.Store
	idleTimeout time.Duration
	done        chan struct{}
	stopOnce    sync.Once
}

func newCardManager(store *bingo.Store, idleTimeout time.Duration) *cardManager {
	cm := &cardManager{
		hubs:        make(map[string]*cardHub),
		store:       store,
		idleTimeout: idleTimeout,
		done:        make(chan struct{}),
	}
	if idleTimeout > 0 {
		go cm.reaperLoop()
	}
	return cm
}

// getHub returns the player's hub, loading their card if it is not held in
// memory. A card that cannot be read is never cached, as its first write
// would replace the saved one.
func (cm *cardManager) getHub(ctx context.Context, cfg *Config, playerID string) (*cardHub, error) {
	for {
		cm.mu.Lock()
		if hub, ok := cm.hubs[playerID]; ok {
			cm.mu.Unlock()

			return hub, nil
		}
		removed := cm.removed
		cm.mu.Unlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		board, err := cm.store.Fetch(loadCtx, playerID)
		cancel()
		if err != nil {
			return nil, err
		}

		cm.mu.Lock()
		select {
		case <-cm.done:
			cm.mu.Unlock()

			return nil, errHubStopped
		default:
		}

		if hub, ok := cm.hubs[playerID]; ok {
			cm.mu.Unlock()

			return hub, nil
		}

		// A hub was reaped while we read, and may have saved after our read.
		if cm.removed != removed {
			cm.mu.Unlock()

			continue
		}

		hub := newCardHub(playerID, cm.store, board)
		cm.hubs[playerID] = hub
		cm.mu.Unlock()

		go hub.run()

		logf(cfg, "CARDS: Loaded card for %s", playerID)

		return hub, nil
	}
}

// withHub runs fn against the player's hub, moving to a fresh hub if the
// one it was handed is reaped in the meantime.
func (cm *cardManager) withHub(ctx context.Context, cfg *Config, playerID string, fn func(*cardHub) error) error {
	for {
		hub, err := cm.getHub(ctx, cfg, playerID)
		if err != nil {
			return err
		}

		if err := fn(hub); !errors.Is(err, errHubStopped) {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (cm *cardManager) state(ctx context.Context, cfg *Config, playerID string) (StateMessage, error) {
	var msg StateMessage

	err := cm.withHub(ctx, cfg, playerID, func(h *cardHub) error {
		var err error
		msg, err = h.state()

		return err
	})

	return msg, err
}

func (cm *cardManager) toggle(ctx context.Context, cfg *Config, playerID string, index int) (StateMessage, error) {
	var msg StateMessage

	err := cm.withHub(ctx, cfg, playerID, func(h *cardHub) error {
		var err error
		msg, err = h.toggle(ctx, cfg, index)

		return err
	})

	return msg, err
}

func (cm *cardManager) reset(ctx context.Context, cfg *Config, playerID string) (StateMessage, error) {
	var msg StateMessage

	err := cm.withHub(ctx, cfg, playerID, func(h *cardHub) error {
		var err error
		msg, err = h.reset(ctx, cfg)

		return err
	})

	return msg, err
}

// join attaches a websocket client to the player's hub.
func (cm *cardManager) join(ctx context.Context, cfg *Config, playerID string, c *cardClient) (*cardHub, error) {
	var joined *cardHub

	err := cm.withHub(ctx, cfg, playerID, func(h *cardHub) error {
		if !h.join(c) {
			return errHubStopped
		}
		joined = h

		return nil
	})

	return joined, err
}

func (cm *cardManager) active() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return len(cm.hubs)
}

// reap stops and removes every hub without open tabs that has been idle
// since before cutoff.
func (cm *cardManager) reap(cutoff time.Time) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for id, hub := range cm.hubs {
		if hub.stopIfIdle(cutoff) {
			delete(cm.hubs, id)
			cm.removed++
		}
	}
}

func (cm *cardManager) reaperLoop() {
	ticker := time.NewTicker(max(cm.idleTimeout/2, minReapInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cm.reap(time.Now().Add(-cm.idleTimeout))
		case <-cm.done:
			return
		}
	}
}

func (cm *cardManager) stop() {
	cm.stopOnce.Do(func() {
		close(cm.done)

		cm.mu.Lock()
		defer cm.mu.Unlock()

		for id, hub := range cm.hubs {
			delete(cm.hubs, id)
			cm.removed++
			hub.stop()
		}
	})
}

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int((400 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (c *cardClient) readPump(ctx context.Context, cfg *Config, h *cardHub) {
	defer func() {
		h.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "toggle":
			if msg.Index == nil {
				continue
			}
			_, err := h.toggle(ctx, cfg, *msg.Index)
			if err != nil && !errors.Is(err, errHubStopped) {
				h.mu.Lock()
				if h.clients[c] {
					h.sendLocked(c, ErrorMessage{Type: "error", Message: err.Error()})
				}
				h.mu.Unlock()
			}
		case "reset":
			_, _ = h.reset(ctx, cfg)
		default:
			// ignore unknown types
		}
	}
}

func (c *cardClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
