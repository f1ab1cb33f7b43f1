package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vocab-quiz-service/internal/domain"
)

// WordListLoader fetches word lists from a backing store (e.g., document DB).
type WordListLoader interface {
	GetWordList(ctx context.Context, id string) (domain.WordList, error)
}

// WordListCache caches word lists with TTL to avoid repeated DB hits.
type WordListCache struct {
	loader WordListLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedWordList
}

type cachedWordList struct {
	list      domain.WordList
	expiresAt time.Time
}

func NewWordListCache(loader WordListLoader, ttl time.Duration) *WordListCache {
	return &WordListCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedWordList),
	}
}

func (c *WordListCache) GetWordList(ctx context.Context, id string) (domain.WordList, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.list, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.list, nil
		}
		c.mu.RUnlock()

		list, err := c.loader.GetWordList(ctx, id)
		if err != nil {
			return domain.WordList{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedWordList{
			list:      list,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return domain.WordList{}, err
	}
	return result.(domain.WordList), nil
}

// Invalidate drops a cached list so the next read reloads it.
func (c *WordListCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
	c.sf.Forget(id)
}

func (c *WordListCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
