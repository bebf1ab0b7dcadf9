// Package memory is an in-process ContributionWriter used by tests and by
// deployments that run without a Google spreadsheet.
package memory

import (
	"context"
	"fmt"
	"sync"

	"harambee/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Contribution
}

func New() *Store {
	return &Store{}
}

// Append stores the contribution and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, c core.Contribution) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, c)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Appended returns a copy of everything written so far.
func (s *Store) Appended() []core.Contribution {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Contribution, len(s.items))
	copy(out, s.items)
	return out
}
