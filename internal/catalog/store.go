package catalog

import (
	"fmt"
	"sync"

	"mosaic-picture/internal/platform"
)

// Store holds the active catalog for a path and announces reloads.
type Store struct {
	path string

	mu      sync.Mutex
	current *platform.Signal[*Catalog]
}

// Open loads path and returns a Store serving it.
func Open(path string) (*Store, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, current: platform.NewSignal(c)}, nil
}

// NewStore returns a Store serving c. Reload reads path.
func NewStore(path string, c *Catalog) *Store {
	return &Store{path: path, current: platform.NewSignal(c)}
}

// Path returns the catalog file the Store reloads from.
func (s *Store) Path() string { return s.path }

// Current returns the active catalog.
func (s *Store) Current() *Catalog { return s.current.Get() }

// Lookup finds a picture in the active catalog.
func (s *Store) Lookup(name string) (Picture, error) { return s.Current().Lookup(name) }

// Reload re-reads the catalog file. On error the active catalog is kept.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := Load(s.path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", s.path, err)
	}
	s.current.Set(c)
	return nil
}

// Subscribe registers fn to receive every successfully reloaded catalog.
func (s *Store) Subscribe(fn func(*Catalog)) (unsubscribe func()) {
	return s.current.Subscribe(fn)
}

// Feed delivers reloaded catalogs on a channel that holds only the latest
// one. stop unsubscribes and closes the channel; it is safe to call twice.
func (s *Store) Feed() (updates <-chan *Catalog, stop func()) {
	ch := make(chan *Catalog, 1)

	var (
		mu     sync.Mutex
		closed bool
		once   sync.Once
	)
	unsubscribe := s.Subscribe(func(c *Catalog) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-ch:
		default:
		}
		ch <- c
	})

	return ch, func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}
