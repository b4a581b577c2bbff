/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage provides the key-value backends boards are persisted to.
package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory keeps records in a map for the lifetime of the process.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]

	return slices.Clone(v), ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = slices.Clone(value)

	return nil
}

func (m *Memory) Close() error {
	return nil
}
