// Package styles backs the style-config editor: POST /api/styles stores the
// generated source file and the manager keeps an in-memory copy current.
package styles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrEmptySource = errors.New("style source is empty")

type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type Manager struct {
	path         string
	pollInterval time.Duration

	mu      sync.RWMutex
	status  Status
	lastErr error
	current string
	modTime time.Time
}

func NewManager(path string) *Manager {
	m := &Manager{path: path, status: StatusIdle, pollInterval: 60 * time.Second}
	if err := m.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("styles: initial load failed")
	}
	return m
}

func (m *Manager) Path() string { return m.path }

// Save writes source atomically (temp file + rename in the same directory).
func (m *Manager) Save(source string) error {
	err := m.write(source)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.status, m.lastErr = StatusError, err
		return err
	}
	m.status, m.lastErr = StatusSuccess, nil
	m.current = source
	if info, statErr := os.Stat(m.path); statErr == nil {
		m.modTime = info.ModTime()
	}
	return nil
}

func (m *Manager) write(source string) error {
	if source == "" {
		return ErrEmptySource
	}
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create styles dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".styles-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		return fmt.Errorf("write styles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close styles: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("replace styles: %w", err)
	}
	return nil
}

// Status reports the outcome of the last Save and its error, if any.
func (m *Manager) Status() (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.lastErr
}

func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reload re-reads the file from disk.
func (m *Manager) Reload() error {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = string(raw)
	m.modTime = info.ModTime()
	m.mu.Unlock()
	return nil
}

// ReloadIfChanged reloads only when the file mtime moved.
func (m *Manager) ReloadIfChanged() {
	info, err := os.Stat(m.path)
	if err != nil {
		return
	}
	m.mu.RLock()
	same := info.ModTime().Equal(m.modTime)
	m.mu.RUnlock()
	if same {
		return
	}
	if err := m.Reload(); err != nil {
		log.Warn().Err(err).Msg("styles: reload failed")
	}
}
