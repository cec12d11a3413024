package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
)

// QuizCache caches learner quiz projections with TTL to avoid repeated DB hits.
type QuizCache struct {
	loader app.QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[int64]cachedQuiz
	// gen is bumped by Invalidate; a load only fills the cache if the
	// generation it started under is still current.
	gen map[int64]uint64
}

type cachedQuiz struct {
	quiz      domain.PublicQuiz
	expiresAt time.Time
}

func NewQuizCache(loader app.QuizLoader, ttl time.Duration) *QuizCache {
	return NewQuizCacheWithClock(loader, ttl, time.Now)
}

// NewQuizCacheWithClock is used by tests to control expiry.
func NewQuizCacheWithClock(loader app.QuizLoader, ttl time.Duration, clock func() time.Time) *QuizCache {
	return &QuizCache{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuiz),
		gen:    make(map[int64]uint64),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, contentID int64) (domain.PublicQuiz, error) {
	if quiz, ok := c.lookup(contentID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(contentID, 10), func() (interface{}, error) {
		if quiz, ok := c.lookup(contentID); ok {
			return quiz, nil
		}
		c.mu.RLock()
		startGen := c.gen[contentID]
		c.mu.RUnlock()

		quiz, err := c.loader.LoadQuiz(ctx, contentID)
		if err != nil {
			return domain.PublicQuiz{}, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			if c.gen[contentID] == startGen {
				c.cache[contentID] = cachedQuiz{quiz: quiz, expiresAt: c.clock().Add(ttl)}
			}
			c.mu.Unlock()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return result.(domain.PublicQuiz), nil
}

// Invalidate drops the cached projection after a quiz replacement or publish.
func (c *QuizCache) Invalidate(_ context.Context, contentID int64) error {
	c.mu.Lock()
	delete(c.cache, contentID)
	c.gen[contentID]++
	c.mu.Unlock()
	c.sf.Forget(strconv.FormatInt(contentID, 10))
	return nil
}

func (c *QuizCache) lookup(contentID int64) (domain.PublicQuiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[contentID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.PublicQuiz{}, false
	}
	return entry.quiz, true
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
