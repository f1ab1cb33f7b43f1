package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"vocab-quiz-service/internal/domain"
)

// WordListLoader fetches word lists from the system of record (Postgres).
type WordListLoader interface {
	GetWordList(ctx context.Context, id string) (domain.WordList, error)
}

// WordListCache keeps word lists in Redis as JSON and falls back to a loader
// on cache miss. Lists are stored as: SET wordlist:{id} {json} EX ttl
type WordListCache struct {
	client *redis.Client
	loader WordListLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewWordListCache(client *redis.Client, loader WordListLoader, ttl time.Duration) *WordListCache {
	return &WordListCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *WordListCache) GetWordList(ctx context.Context, id string) (domain.WordList, error) {
	if list, ok := c.cached(ctx, id); ok {
		return list, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if list, ok := c.cached(ctx, id); ok {
			return list, nil
		}

		list, err := c.loader.GetWordList(ctx, id)
		if err != nil {
			return domain.WordList{}, err
		}

		if raw, err := json.Marshal(list); err == nil {
			_ = c.client.Set(ctx, c.key(id), raw, c.ttlWithJitter()).Err()
		}
		return list, nil
	})
	if err != nil {
		return domain.WordList{}, err
	}
	return result.(domain.WordList), nil
}

// Invalidate deletes the cached copy of a list after it was edited or removed.
func (c *WordListCache) Invalidate(ctx context.Context, id string) {
	_ = c.client.Del(ctx, c.key(id)).Err()
	c.sf.Forget(id)
}

func (c *WordListCache) cached(ctx context.Context, id string) (domain.WordList, bool) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; other errors fall through to the loader too
		return domain.WordList{}, false
	}
	var list domain.WordList
	if err := json.Unmarshal(raw, &list); err != nil {
		return domain.WordList{}, false
	}
	return list, true
}

func (c *WordListCache) key(id string) string {
	return "wordlist:" + id
}

func (c *WordListCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
