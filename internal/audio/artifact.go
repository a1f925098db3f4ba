// Package audio owns the synthesized audio files handed out to the UI.
//
// Every file lives under the manager's directory and is represented by an
// Artifact. Whoever holds an Artifact is responsible for releasing it; the
// manager additionally sweeps artifacts older than its TTL and removes
// everything it created on Close.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	ContentType = "audio/mpeg"
	extension   = ".mp3"
)

var (
	ErrNotFound = errors.New("audio artifact not found")
	ErrEmpty    = errors.New("audio artifact is empty")

	idPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// minSweepInterval bounds how often Run wakes up for very short TTLs.
	minSweepInterval = time.Second
)

type Artifact struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	// URL is set when the artifact was published to object storage.
	URL string `json:"url,omitempty"`

	release func(id string) error
}

// Release removes the artifact's file. It is safe to call more than once.
func (a *Artifact) Release() error {
	if a == nil || a.release == nil {
		return nil
	}
	return a.release(a.ID)
}

// Hook is notified about artifact lifecycle events, typically to keep a
// registry in sync. Errors are returned to the caller of Create/Release.
type Hook interface {
	ArtifactCreated(ctx context.Context, a *Artifact) error
	ArtifactReleased(ctx context.Context, id string) error
}

type Options struct {
	Dir       string
	TTL       time.Duration
	Publisher Publisher
	Hook      Hook
}

type Manager struct {
	dir       string
	ttl       time.Duration
	publisher Publisher
	hook      Hook

	mu        sync.Mutex
	artifacts map[string]*Artifact
	now       func() time.Time
}

// NewManager creates dir if needed. A zero TTL disables sweeping.
func NewManager(opts Options) (*Manager, error) {
	if opts.Dir == "" {
		opts.Dir = filepath.Join(os.TempDir(), "bhasha")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	return &Manager{
		dir:       opts.Dir,
		ttl:       opts.TTL,
		publisher: opts.Publisher,
		hook:      opts.Hook,
		artifacts: make(map[string]*Artifact),
		now:       time.Now,
	}, nil
}

func (m *Manager) Dir() string {
	return m.dir
}

// Create writes a new artifact through fill. A fill error or an empty result
// removes the partial file and no artifact is registered.
func (m *Manager) Create(ctx context.Context, fill func(w io.Writer) error) (*Artifact, error) {
	id := uuid.New().String()
	path := filepath.Join(m.dir, id+extension)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio file: %w", err)
	}

	size, err := writeAll(f, fill)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	a := &Artifact{
		ID:        id,
		Path:      path,
		Size:      size,
		CreatedAt: m.now(),
		release:   m.release,
	}

	if m.publisher != nil {
		publicURL, err := m.publisher.Publish(ctx, a)
		if err != nil {
			os.Remove(path)
			return nil, fmt.Errorf("failed to publish audio: %w", err)
		}
		a.URL = publicURL
	}

	m.mu.Lock()
	m.artifacts[id] = a
	m.mu.Unlock()

	if m.hook != nil {
		if err := m.hook.ArtifactCreated(ctx, a); err != nil {
			a.Release()
			return nil, fmt.Errorf("failed to register audio: %w", err)
		}
	}

	return a, nil
}

func writeAll(f *os.File, fill func(w io.Writer) error) (int64, error) {
	cw := &countingWriter{w: f}
	fillErr := fill(cw)
	closeErr := f.Close()

	if fillErr != nil {
		return 0, fillErr
	}
	if closeErr != nil {
		return 0, fmt.Errorf("failed to write audio file: %w", closeErr)
	}
	if cw.n == 0 {
		return 0, ErrEmpty
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Get returns a live artifact by ID.
func (m *Manager) Get(id string) (*Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artifacts[id]
	return a, ok
}

// Open returns a reader for the artifact's file. The caller closes it.
func (m *Manager) Open(id string) (*os.File, *Artifact, error) {
	if !idPattern.MatchString(id) {
		return nil, nil, ErrNotFound
	}
	a, ok := m.Get(id)
	if !ok {
		return nil, nil, ErrNotFound
	}
	f, err := os.Open(a.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return f, a, nil
}

func (m *Manager) Release(id string) error {
	return m.release(id)
}

func (m *Manager) release(id string) error {
	m.mu.Lock()
	a, ok := m.artifacts[id]
	delete(m.artifacts, id)
	m.mu.Unlock()

	if !ok {
		return nil
	}

	var errs []error
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("failed to remove audio file: %w", err))
	}
	if m.publisher != nil && a.URL != "" {
		if err := m.publisher.Unpublish(context.Background(), a); err != nil {
			errs = append(errs, fmt.Errorf("failed to unpublish audio: %w", err))
		}
	}
	if m.hook != nil {
		if err := m.hook.ArtifactReleased(context.Background(), id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of live artifacts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.artifacts)
}

// Sweep releases artifacts created before now-olderThan and returns how many
// were removed.
func (m *Manager) Sweep(olderThan time.Duration) (int, error) {
	cutoff := m.now().Add(-olderThan)

	m.mu.Lock()
	var expired []string
	for id, a := range m.artifacts {
		if a.CreatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range expired {
		if err := m.release(id); err != nil {
			errs = append(errs, err)
		}
	}
	return len(expired), errors.Join(errs...)
}

// Run sweeps expired artifacts every TTL/2, but no more often than
// minSweepInterval, until ctx is done.
func (m *Manager) Run(ctx context.Context, onSweep func(removed int, err error)) {
	if m.ttl <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(sweepInterval(m.ttl))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(m.ttl)
			if onSweep != nil {
				onSweep(n, err)
			}
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 2; interval >= minSweepInterval {
		return interval
	}
	return minSweepInterval
}

// Close releases every artifact still held by the manager.
func (m *Manager) Close() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.artifacts))
	for id := range m.artifacts {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.release(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
