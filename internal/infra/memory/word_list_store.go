package memory

import (
	"context"
	"sync"

	"vocab-quiz-service/internal/domain"
)

// WordListStore keeps word lists in a map. Useful for tests/demos.
type WordListStore struct {
	mu    sync.RWMutex
	lists map[string]domain.WordList
}

func NewWordListStore(seed ...domain.WordList) *WordListStore {
	s := &WordListStore{lists: make(map[string]domain.WordList, len(seed))}
	for _, list := range seed {
		s.lists[list.ID] = cloneList(list)
	}
	return s
}

func (s *WordListStore) Create(_ context.Context, list domain.WordList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[list.ID] = cloneList(list)
	return nil
}

func (s *WordListStore) Get(_ context.Context, id string) (domain.WordList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.lists[id]
	if !ok {
		return domain.WordList{}, domain.ErrWordListNotFound
	}
	return cloneList(list), nil
}

// GetWordList lets the store back a WordListCache directly.
func (s *WordListStore) GetWordList(ctx context.Context, id string) (domain.WordList, error) {
	return s.Get(ctx, id)
}

func (s *WordListStore) Update(_ context.Context, list domain.WordList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[list.ID]; !ok {
		return domain.ErrWordListNotFound
	}
	s.lists[list.ID] = cloneList(list)
	return nil
}

func (s *WordListStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[id]; !ok {
		return domain.ErrWordListNotFound
	}
	delete(s.lists, id)
	return nil
}

func (s *WordListStore) ListByOwner(_ context.Context, ownerID string) ([]domain.WordList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WordList, 0)
	for _, list := range s.lists {
		if list.OwnerID == ownerID {
			out = append(out, cloneList(list))
		}
	}
	return out, nil
}

func (s *WordListStore) ListPublic(_ context.Context, filter domain.WordListFilter) ([]domain.WordList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WordList, 0)
	for _, list := range s.lists {
		if list.IsPublic && filter.Matches(list) {
			out = append(out, cloneList(list))
		}
	}
	return out, nil
}

func (s *WordListStore) IncrementUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[id]
	if !ok {
		return domain.ErrWordListNotFound
	}
	list.UsageCount++
	s.lists[id] = list
	return nil
}

func cloneList(list domain.WordList) domain.WordList {
	list.Words = append([]domain.WordEntry(nil), list.Words...)
	list.Tags = append([]string(nil), list.Tags...)
	return list
}
