// Package credstore provides credential-store implementations for the
// session core: an in-memory store for tests and short-lived processes,
// and a file-backed store for CLI-style clients.
package credstore

import (
	"context"
	"sync"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
)

// Memory is a process-local credential store. Safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	token string
	user  *domain.User
}

var _ ports.CredentialStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) (string, *domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.user.Clone(), nil
}

func (m *Memory) Save(_ context.Context, token string, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = user.Clone()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	return nil
}
