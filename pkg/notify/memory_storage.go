package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/washhub/realtime/pkg/rooms"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing; the platform's record store backs
// production deployments.
type MemoryStorage struct {
	records []Record
	byID    map[string]int
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory record storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID: make(map[string]int),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return errors.New("notify: record ID is required")
	}
	if !rec.AppType.Valid() {
		return errors.New("notify: record app type is required")
	}
	if _, exists := s.byID[rec.ID]; exists {
		return errors.New("notify: duplicate record ID")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	s.byID[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, exists := s.byID[id]
	if !exists {
		return nil, ErrRecordNotFound
	}

	// Return a copy to prevent external mutation of stored data.
	rec := s.records[idx]
	return &rec, nil
}

func (s *MemoryStorage) List(ctx context.Context, rcpt Recipient, opts ListOptions) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []Record
	for _, rec := range s.records {
		if !rcpt.Sees(rec) {
			continue
		}
		if opts.OnlyUnread && rec.Read {
			continue
		}
		if len(opts.Categories) > 0 && !containsCategory(opts.Categories, rec.Category) {
			continue
		}
		if opts.Since != nil && rec.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, rec)
	}

	// Newest first.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Record{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, app rooms.AppType, userID string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before mutating anything.
	idxs := make([]int, 0, len(ids))
	for _, id := range ids {
		idx, exists := s.byID[id]
		if !exists {
			return ErrRecordNotFound
		}
		rec := s.records[idx]
		// Read state belongs to user-addressed records only. Broadcast
		// records stay unread for every other reader on the surface.
		if rec.Audience != AudienceUser || rec.UserID != userID || rec.AppType != app {
			return ErrRecordNotFound
		}
		idxs = append(idxs, idx)
	}

	for _, idx := range idxs {
		s.records[idx].MarkAsRead()
	}
	return nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, rcpt Recipient) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.records {
		if rcpt.Sees(rec) && !rec.Read {
			count++
		}
	}
	return count, nil
}

func containsCategory(cats []Category, c Category) bool {
	for _, cat := range cats {
		if cat == c {
			return true
		}
	}
	return false
}
