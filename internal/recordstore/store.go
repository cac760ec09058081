// Package recordstore is the key→JSON persistence boundary the screens bind
// to. Two logical collections live here: consultation submissions and
// portfolio entries, each a JSON array under a fixed key, newest first.
package recordstore

import (
	"context"
	"encoding/json"
	"sync"
)

const (
	KeyConsultations = "ucraft:consultations"
	KeyProjects      = "ucraft:projects"
)

// Store is a synchronous key→JSON-value store. Get reports absence via the
// second return instead of an error.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Close() error
}

// Memory is the in-process backend, the default when no DSN is configured
// and the backend of choice in tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *Memory) Close() error { return nil }
