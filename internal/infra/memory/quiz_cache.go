package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quiz-session-client/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizFetcher loads quiz definitions from a backing source (the remote API).
type QuizFetcher interface {
	FetchQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizCache caches quiz definitions with TTL so a session does not refetch
// the immutable definition on every render or resume.
type QuizCache struct {
	fetcher QuizFetcher
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(fetcher QuizFetcher, ttl time.Duration) *QuizCache {
	return &QuizCache{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[int64]cachedQuiz),
	}
}

func (c *QuizCache) FetchQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizKey(quizID), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.quiz, nil
		}
		c.mu.RUnlock()

		quiz, err := c.fetcher.FetchQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func quizKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10)
}

// StaticQuizSource serves quizzes from a fixed map (tests and demos).
type StaticQuizSource struct {
	quizzes map[int64]domain.Quiz
}

func NewStaticQuizSource(quizzes map[int64]domain.Quiz) *StaticQuizSource {
	return &StaticQuizSource{quizzes: quizzes}
}

func (s *StaticQuizSource) FetchQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}
