package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"vocab-quiz-service/internal/domain"
)

var difficultyTags = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}

// WordListService manages teacher-authored word lists.
type WordListService struct {
	store WordListStore
	cache CacheInvalidator
	clock func() time.Time
	newID func() string
}

// NewWordListService builds the service; cache may be nil.
func NewWordListService(store WordListStore, cache CacheInvalidator) *WordListService {
	return &WordListService{
		store: store,
		cache: cache,
		clock: time.Now,
		newID: uuid.NewString,
	}
}

// Create validates and stores a new list owned by ownerID.
func (s *WordListService) Create(ctx context.Context, ownerID string, list domain.WordList) (domain.WordList, error) {
	if ownerID == "" {
		return domain.WordList{}, domain.ErrForbidden
	}
	list, err := normalizeWordList(list)
	if err != nil {
		return domain.WordList{}, err
	}
	now := s.clock()
	list.ID = s.newID()
	list.OwnerID = ownerID
	list.UsageCount = 0
	list.CreatedAt = now
	list.UpdatedAt = now

	if err := s.store.Create(ctx, list); err != nil {
		return domain.WordList{}, storeErr("create word list", err)
	}
	return list, nil
}

// Get loads a list by id.
func (s *WordListService) Get(ctx context.Context, id string) (domain.WordList, error) {
	list, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.WordList{}, storeErr("get word list", err)
	}
	return list, nil
}

// GetWordList lets the service act as a WordListSource.
func (s *WordListService) GetWordList(ctx context.Context, id string) (domain.WordList, error) {
	return s.Get(ctx, id)
}

// Update replaces the editable fields of a list the user owns.
func (s *WordListService) Update(ctx context.Context, userID, id string, changes domain.WordList) (domain.WordList, error) {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return domain.WordList{}, err
	}
	list, err := normalizeWordList(changes)
	if err != nil {
		return domain.WordList{}, err
	}
	list.ID = existing.ID
	list.OwnerID = existing.OwnerID
	list.UsageCount = existing.UsageCount
	list.CreatedAt = existing.CreatedAt
	list.UpdatedAt = s.clock()

	if err := s.store.Update(ctx, list); err != nil {
		return domain.WordList{}, storeErr("update word list", err)
	}
	s.invalidate(ctx, id)
	return list, nil
}

// Delete removes a list the user owns.
func (s *WordListService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return storeErr("delete word list", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// ListMine returns the owner's lists, most recently updated first.
func (s *WordListService) ListMine(ctx context.Context, ownerID string) ([]domain.WordList, error) {
	lists, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list word lists", err)
	}
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].UpdatedAt.After(lists[j].UpdatedAt)
	})
	return lists, nil
}

// ListPublic returns shared lists matching filter, most used first.
func (s *WordListService) ListPublic(ctx context.Context, filter domain.WordListFilter) ([]domain.WordList, error) {
	lists, err := s.store.ListPublic(ctx, filter)
	if err != nil {
		return nil, storeErr("list public word lists", err)
	}
	sort.SliceStable(lists, func(i, j int) bool {
		return lists[i].UsageCount > lists[j].UsageCount
	})
	if filter.Limit > 0 && len(lists) > filter.Limit {
		lists = lists[:filter.Limit]
	}
	return lists, nil
}

// Search matches public lists whose title, description or tags contain term.
func (s *WordListService) Search(ctx context.Context, term string) ([]domain.WordList, error) {
	lists, err := s.store.ListPublic(ctx, domain.WordListFilter{})
	if err != nil {
		return nil, storeErr("search word lists", err)
	}
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]domain.WordList, 0, len(lists))
	for _, list := range lists {
		if matchesTerm(list, term) {
			out = append(out, list)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// IncrementUsage counts one more game played with the list.
func (s *WordListService) IncrementUsage(ctx context.Context, id string) error {
	if err := s.store.IncrementUsage(ctx, id); err != nil {
		return storeErr("increment usage", err)
	}
	return nil
}

func (s *WordListService) owned(ctx context.Context, userID, id string) (domain.WordList, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.WordList{}, err
	}
	if userID == "" || existing.OwnerID != userID {
		return domain.WordList{}, domain.ErrForbidden
	}
	return existing, nil
}

func (s *WordListService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func matchesTerm(list domain.WordList, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(list.Title), term) ||
		strings.Contains(strings.ToLower(list.Description), term) {
		return true
	}
	for _, tag := range list.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// normalizeWordList trims fields, drops blank words and applies editor defaults.
func normalizeWordList(list domain.WordList) (domain.WordList, error) {
	list.Title = strings.TrimSpace(list.Title)
	if list.Title == "" {
		return list, fmt.Errorf("%w: title is required", domain.ErrInvalidWordList)
	}
	list.Description = strings.TrimSpace(list.Description)

	words := make([]domain.WordEntry, 0, len(list.Words))
	for _, w := range list.Words {
		w.Word = strings.TrimSpace(w.Word)
		if w.Word == "" {
			continue
		}
		w.PronunciationHint = strings.TrimSpace(w.PronunciationHint)
		w.Subcategory = strings.TrimSpace(w.Subcategory)
		words = append(words, w)
	}
	if len(words) == 0 {
		return list, fmt.Errorf("%w: at least one word is required", domain.ErrInvalidWordList)
	}
	list.Words = words

	list.DifficultyTag = strings.ToLower(strings.TrimSpace(list.DifficultyTag))
	if list.DifficultyTag == "" {
		list.DifficultyTag = "beginner"
	}
	if !difficultyTags[list.DifficultyTag] {
		return list, fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidWordList, list.DifficultyTag)
	}
	if list.Category = strings.TrimSpace(list.Category); list.Category == "" {
		list.Category = "general"
	}
	if list.Language = strings.TrimSpace(list.Language); list.Language == "" {
		list.Language = "en"
	}

	tags := make([]string, 0, len(list.Tags))
	seen := make(map[string]bool, len(list.Tags))
	for _, tag := range list.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	list.Tags = tags
	return list, nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrWordListNotFound) || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
