package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz-service/internal/domain"
)

const wordListColumns = `id, owner_id, title, description, category, difficulty, language,
	tags, is_public, usage_count, words, created_at, updated_at`

// WordListStore persists word lists; words and tags are JSONB columns.
type WordListStore struct {
	pool *pgxpool.Pool
}

func NewWordListStore(pool *pgxpool.Pool) *WordListStore {
	return &WordListStore{pool: pool}
}

func (s *WordListStore) Create(ctx context.Context, list domain.WordList) error {
	words, tags, err := marshalList(list)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO word_lists (`+wordListColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		list.ID, list.OwnerID, list.Title, list.Description, list.Category, list.DifficultyTag, list.Language,
		tags, list.IsPublic, list.UsageCount, words, list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert word list: %w", err)
	}
	return nil
}

func (s *WordListStore) Get(ctx context.Context, id string) (domain.WordList, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+wordListColumns+` FROM word_lists WHERE id=$1`, id)
	list, err := scanList(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WordList{}, domain.ErrWordListNotFound
	}
	if err != nil {
		return domain.WordList{}, fmt.Errorf("load word list: %w", err)
	}
	return list, nil
}

// GetWordList lets the store act as the loader behind a cache.
func (s *WordListStore) GetWordList(ctx context.Context, id string) (domain.WordList, error) {
	return s.Get(ctx, id)
}

func (s *WordListStore) Update(ctx context.Context, list domain.WordList) error {
	words, tags, err := marshalList(list)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE word_lists SET
		title=$2, description=$3, category=$4, difficulty=$5, language=$6,
		tags=$7, is_public=$8, words=$9, updated_at=$10
		WHERE id=$1`,
		list.ID, list.Title, list.Description, list.Category, list.DifficultyTag, list.Language,
		tags, list.IsPublic, words, list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update word list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWordListNotFound
	}
	return nil
}

func (s *WordListStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM word_lists WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete word list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWordListNotFound
	}
	return nil
}

func (s *WordListStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.WordList, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+wordListColumns+` FROM word_lists
		WHERE owner_id=$1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list word lists: %w", err)
	}
	return collectLists(rows)
}

func (s *WordListStore) ListPublic(ctx context.Context, filter domain.WordListFilter) ([]domain.WordList, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+wordListColumns+` FROM word_lists
		WHERE is_public
		  AND ($1::text = '' OR category = $1)
		  AND ($2::text = '' OR difficulty = $2)
		  AND ($3::text = '' OR language = $3)
		ORDER BY usage_count DESC, title`,
		filter.Category, filter.Difficulty, filter.Language,
	)
	if err != nil {
		return nil, fmt.Errorf("list public word lists: %w", err)
	}
	return collectLists(rows)
}

func (s *WordListStore) IncrementUsage(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE word_lists SET usage_count = usage_count + 1 WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWordListNotFound
	}
	return nil
}

func marshalList(list domain.WordList) ([]byte, []byte, error) {
	words, err := json.Marshal(list.Words)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal words: %w", err)
	}
	if list.Tags == nil {
		list.Tags = []string{}
	}
	tags, err := json.Marshal(list.Tags)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	return words, tags, nil
}

func scanList(row pgx.Row) (domain.WordList, error) {
	var (
		list        domain.WordList
		words, tags []byte
	)
	err := row.Scan(&list.ID, &list.OwnerID, &list.Title, &list.Description, &list.Category,
		&list.DifficultyTag, &list.Language, &tags, &list.IsPublic, &list.UsageCount, &words,
		&list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		return domain.WordList{}, err
	}
	if err := json.Unmarshal(words, &list.Words); err != nil {
		return domain.WordList{}, fmt.Errorf("unmarshal words: %w", err)
	}
	if err := json.Unmarshal(tags, &list.Tags); err != nil {
		return domain.WordList{}, fmt.Errorf("unmarshal tags: %w", err)
	}
	return list, nil
}

func collectLists(rows pgx.Rows) ([]domain.WordList, error) {
	defer rows.Close()
	out := make([]domain.WordList, 0)
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, list)
	}
	return out, rows.Err()
}
