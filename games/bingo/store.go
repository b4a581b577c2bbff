/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package bingo

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// StorageKey names the record holding a player's board within their slot.
const StorageKey = "python_community_bingo_state"

// KV is a durable key-value backend.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store loads and persists one board per slot.
type Store struct {
	kv  KV
	log *zap.SugaredLogger
}

func NewStore(kv KV, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Store{kv: kv, log: log}
}

func slotKey(slot string) string {
	return slot + "/" + StorageKey
}

// Fetch returns the board persisted in slot. A missing or malformed record
// yields DefaultBoard; only a failure to read the backend is an error.
func (s *Store) Fetch(ctx context.Context, slot string) (Board, error) {
	data, ok, err := s.kv.Get(ctx, slotKey(slot))
	if err != nil {
		return DefaultBoard(), fmt.Errorf("reading board for %s: %w", slot, err)
	}
	if !ok {
		return DefaultBoard(), nil
	}

	var cells []bool
	if err := json.Unmarshal(data, &cells); err != nil || len(cells) != Cells {
		s.log.Debugf("STORE: Discarding malformed board for %s", slot)

		return DefaultBoard(), nil
	}

	var b Board
	copy(b[:], cells)
	b[Center] = true

	return b, nil
}

// Load is Fetch for callers that never write the result back: read
// errors are logged and treated as absence.
func (s *Store) Load(ctx context.Context, slot string) Board {
	b, err := s.Fetch(ctx, slot)
	if err != nil {
		s.log.Warnf("STORE: %v", err)
	}

	return b
}

// Save overwrites the board persisted in slot.
func (s *Store) Save(ctx context.Context, slot string, b Board) error {
	data, err := json.Marshal(b[:])
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, slotKey(slot), data); err != nil {
		return fmt.Errorf("saving board for %s: %w", slot, err)
	}

	return nil
}

// Reset persists and returns DefaultBoard.
func (s *Store) Reset(ctx context.Context, slot string) (Board, error) {
	b := DefaultBoard()

	return b, s.Save(ctx, slot, b)
}

// Toggle flips square index of b and persists the result. Toggling the
// center returns b untouched without writing.
func (s *Store) Toggle(ctx context.Context, slot string, b Board, index int) (Board, error) {
	if err := validIndex(index); err != nil {
		return b, err
	}

	if index == Center {
		return b, nil
	}

	next, _ := Flip(b, index)

	return next, s.Save(ctx, slot, next)
}
