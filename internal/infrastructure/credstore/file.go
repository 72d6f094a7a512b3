package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
)

// File persists the credential as a JSON document on disk, the way a CLI
// keeps its token cache. A missing or corrupt file reads as absent.
type File struct {
	path string
	mu   sync.Mutex
}

var _ ports.CredentialStore = (*File)(nil)

type fileRecord struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
}

// NewFile stores the credential at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath places the credential cache under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "examgate", "session.json"), nil
}

func (f *File) Load(context.Context) (string, *domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, err
	}

	var rec fileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// Corrupt cache reads as absent, not as a failure.
		return "", nil, nil
	}
	return rec.Token, rec.User, nil
}

func (f *File) Save(_ context.Context, token string, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.Marshal(fileRecord{Token: token, User: user})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0o600)
}

func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
