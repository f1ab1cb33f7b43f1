package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/domain"
)

// APIHandlers serves the REST surface: leaderboards, word lists and history.
type APIHandlers struct {
	boards   *app.LeaderboardService
	lists    *app.WordListService
	progress app.ProgressRepository
}

func NewAPIHandlers(boards *app.LeaderboardService, lists *app.WordListService, progress app.ProgressRepository) *APIHandlers {
	return &APIHandlers{boards: boards, lists: lists, progress: progress}
}

// GetLeaderboard handles GET /api/leaderboard?period=YYYY-MM&limit=N
func (h *APIHandlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	lb, err := h.boards.Top(r.Context(), r.URL.Query().Get("period"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// GetPlayerStats handles GET /api/leaderboard/{userID}?period=YYYY-MM
func (h *APIHandlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.boards.Stats(r.Context(), r.URL.Query().Get("period"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListPublicWordLists handles GET /api/wordlists with optional filters and q search.
func (h *APIHandlers) ListPublicWordLists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	filter := domain.WordListFilter{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Language:   q.Get("language"),
		Limit:      limit,
	}

	var lists []domain.WordList
	if term := q.Get("q"); term != "" {
		found, err := h.lists.Search(r.Context(), term)
		if err != nil {
			writeError(w, err)
			return
		}
		lists = make([]domain.WordList, 0, len(found))
		for _, list := range found {
			if filter.Matches(list) {
				lists = append(lists, list)
			}
		}
		if limit > 0 && len(lists) > limit {
			lists = lists[:limit]
		}
	} else {
		lists, err = h.lists.ListPublic(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"wordLists": lists, "total": len(lists)})
}

// ListMyWordLists handles GET /api/wordlists/mine
func (h *APIHandlers) ListMyWordLists(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	lists, err := h.lists.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"wordLists": lists, "total": len(lists)})
}

// CreateWordList handles POST /api/wordlists
func (h *APIHandlers) CreateWordList(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var body domain.WordList
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", errBadRequest))
		return
	}
	list, err := h.lists.Create(r.Context(), userID, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// GetWordList handles GET /api/wordlists/{id}. Private lists are visible to their owner only.
func (h *APIHandlers) GetWordList(w http.ResponseWriter, r *http.Request) {
	list, err := h.lists.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !list.IsPublic && list.OwnerID != r.Header.Get(UserHeader) {
		writeError(w, domain.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateWordList handles PUT /api/wordlists/{id}
func (h *APIHandlers) UpdateWordList(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	var body domain.WordList
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", errBadRequest))
		return
	}
	list, err := h.lists.Update(r.Context(), userID, chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// DeleteWordList handles DELETE /api/wordlists/{id}
func (h *APIHandlers) DeleteWordList(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	if err := h.lists.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProgress handles GET /api/users/{userID}/progress?wordListId=
func (h *APIHandlers) GetProgress(w http.ResponseWriter, r *http.Request) {
	games, err := h.progress.ListGames(r.Context(), chi.URLParam(r, "userID"), r.URL.Query().Get("wordListId"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: list games: %w", domain.ErrPersistence, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games, "total": len(games)})
}

func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeError(w, fmt.Errorf("%w: missing %s header", domain.ErrForbidden, UserHeader))
		return "", false
	}
	return userID, true
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}
