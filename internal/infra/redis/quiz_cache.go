package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"langquiz-service/internal/app"
	"langquiz-service/internal/domain"
	"langquiz-service/internal/logger"
)

// QuizCache caches learner quiz projections in Redis and falls back to a loader on cache miss.
// Each projection is stored as JSON: SET quiz:content:{contentID} {json} EX ttl
// quiz:gen:{contentID} counts invalidations; a load is only written back if the
// counter has not moved since the load started.
type QuizCache struct {
	client *redis.Client
	loader app.QuizLoader
	ttl    time.Duration
	log    *logger.Logger
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, loader app.QuizLoader, ttl time.Duration, log *logger.Logger) *QuizCache {
	if log == nil {
		log = logger.Nop()
	}
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, contentID int64) (domain.PublicQuiz, error) {
	key := c.key(contentID)
	if quiz, ok := c.read(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := c.read(ctx, key); ok {
			return quiz, nil
		}
		genKey := c.genKey(contentID)
		startGen, genErr := c.generation(ctx, c.client, genKey)

		quiz, err := c.loader.LoadQuiz(ctx, contentID)
		if err != nil {
			return domain.PublicQuiz{}, err
		}

		ttl := c.ttlWithJitter()
		if ttl <= 0 || genErr != nil {
			return quiz, nil
		}
		payload, err := json.Marshal(quiz)
		if err != nil {
			return domain.PublicQuiz{}, err
		}
		if err := c.store(ctx, key, genKey, startGen, payload, ttl); err != nil {
			// a cache write failure only costs a reload
			c.log.Warn("quiz cache write failed", "content_id", contentID, "error", err)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return result.(domain.PublicQuiz), nil
}

// Invalidate deletes the cached projection so the next read reloads it, and
// bumps the generation so loads already in flight are not written back.
func (c *QuizCache) Invalidate(ctx context.Context, contentID int64) error {
	key := c.key(contentID)
	c.sf.Forget(key)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(contentID))
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

// store writes payload only if genKey still holds startGen.
func (c *QuizCache) store(ctx context.Context, key, genKey string, startGen int64, payload []byte, ttl time.Duration) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if current != startGen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated while writing
		return nil
	}
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *QuizCache) generation(ctx context.Context, cmd getter, genKey string) (int64, error) {
	n, err := cmd.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *QuizCache) read(ctx context.Context, key string) (domain.PublicQuiz, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("quiz cache read failed", "key", key, "error", err)
		}
		return domain.PublicQuiz{}, false
	}
	var quiz domain.PublicQuiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		c.log.Warn("quiz cache entry corrupt", "key", key, "error", err)
		return domain.PublicQuiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(contentID int64) string {
	return "quiz:content:" + strconv.FormatInt(contentID, 10)
}

func (c *QuizCache) genKey(contentID int64) string {
	return "quiz:gen:" + strconv.FormatInt(contentID, 10)
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
