// Package disposable collects cleanup actions and runs them together.
package disposable

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/soumeh01/vsce-helper/internal/domain"
)

// Set is a list of registered cleanup actions. The zero value is ready to use.
type Set struct {
	mu      sync.Mutex
	actions []func() error
}

// Add registers a func(), a func() error or a domain.Disposer. Duplicates are
// kept and each registration runs once.
func (s *Set) Add(v any) error {
	var fn func() error

	switch d := v.(type) {
	case func() error:
		fn = d
	case func():
		if d != nil {
			fn = func() error { d(); return nil }
		}
	case domain.Disposer:
		fn = d.Dispose
	default:
		return fmt.Errorf("%w: cannot dispose %T", domain.ErrTypeMismatch, v)
	}
	if fn == nil {
		return fmt.Errorf("%w: nil disposal action", domain.ErrTypeMismatch)
	}

	s.mu.Lock()
	s.actions = append(s.actions, fn)
	s.mu.Unlock()
	return nil
}

// Len reports how many actions are pending.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.actions)
}

// Dispose runs every pending action concurrently and waits for all of them.
// Failures do not stop the others; they are returned together.
func (s *Set) Dispose() error {
	s.mu.Lock()
	actions := s.actions
	s.actions = nil
	s.mu.Unlock()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, fn := range actions {
		fn := fn
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return result.ErrorOrNil()
}
