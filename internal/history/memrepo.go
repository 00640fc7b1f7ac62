package history

import (
	"context"
	"sort"
	"sync"

	"github.com/kapu/notyourbuddy/internal/domain"
)

// memrepo is the in-memory archive used when no database is configured.
type memrepo struct {
	mu     sync.RWMutex
	nextID int64
	runs   []*domain.BanterRun
}

func NewMemoryRepository() Repository {
	return &memrepo{}
}

func (m *memrepo) InsertRun(ctx context.Context, run *domain.BanterRun) (int64, error) {
	if run == nil {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *run
	cp.ID = m.nextID
	m.runs = append(m.runs, &cp)
	return cp.ID, nil
}

func (m *memrepo) RecentRuns(ctx context.Context, limit int) ([]*domain.BanterRun, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := append([]*domain.BanterRun(nil), m.runs...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]*domain.BanterRun, 0, len(items))
	for _, it := range items {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memrepo) BestScore(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best := 0
	for _, r := range m.runs {
		if r.Score > best {
			best = r.Score
		}
	}
	return best, nil
}

func (m *memrepo) Close() error { return nil }
