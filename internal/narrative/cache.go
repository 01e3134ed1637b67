package narrative

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Cache stores narratives by fingerprint. A miss is (zero, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (domain.Narrative, bool, error)
	Put(ctx context.Context, key string, n domain.Narrative) error
}

// Key fingerprints the parts of ac that a narrator reads. Equal contexts
// always produce the same key.
func Key(ac domain.AssessmentContext) string {
	// AssessmentContext has no maps, so encoding/json output is stable.
	data, _ := json.Marshal(ac)
	sum := sha256.Sum256(data)
	return "narrative:" + hex.EncodeToString(sum[:])
}

// Cached wraps a Narrator with a Cache. Only successful results are stored;
// cache hits are reported with Source set to domain.SourceCache.
type Cached struct {
	inner   domain.Narrator
	cache   Cache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCached creates a cache decorator around a narrator.
func NewCached(inner domain.Narrator, cache Cache, logger *slog.Logger, metrics *observability.Metrics) *Cached {
	return &Cached{inner: inner, cache: cache, logger: logger, metrics: metrics}
}

// Narrate implements domain.Narrator.
func (c *Cached) Narrate(ctx context.Context, ac domain.AssessmentContext) (domain.Narrative, error) {
	key := Key(ac)

	n, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a miss.
		c.logger.Warn("narrative cache read failed", "error", err)
	}
	if ok {
		c.metrics.NarrativeCache.WithLabelValues("hit").Inc()
		n.Source = domain.SourceCache
		return n, nil
	}
	c.metrics.NarrativeCache.WithLabelValues("miss").Inc()

	n, err = c.inner.Narrate(ctx, ac)
	if err != nil {
		return n, err
	}
	if err := c.cache.Put(ctx, key, n); err != nil {
		c.logger.Warn("narrative cache write failed", "error", err)
	}
	return n, nil
}

// LRU is a thread-safe in-memory Cache with a size bound and a per-entry TTL.
type LRU struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key     string
	value   domain.Narrative
	expires time.Time
	prev    *entry
	next    *entry
}

// NewLRU creates an LRU holding at most maxEntries narratives for ttl each.
// A zero ttl keeps entries until they are evicted.
func NewLRU(maxEntries int, ttl time.Duration, clock clockwork.Clock) *LRU {
	return &LRU{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

// Get implements Cache.
func (c *LRU) Get(_ context.Context, key string) (domain.Narrative, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Narrative{}, false, nil
	}
	if !e.expires.IsZero() && !c.clock.Now().Before(e.expires) {
		c.delete(e)
		return domain.Narrative{}, false, nil
	}
	c.moveToFront(e)
	return cloneNarrative(e.value), true, nil
}

// Put implements Cache.
func (c *LRU) Put(_ context.Context, key string, n domain.Narrative) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = c.clock.Now().Add(c.ttl)
	}

	if e, ok := c.entries[key]; ok {
		e.value = cloneNarrative(n)
		e.expires = expires
		c.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: cloneNarrative(n), expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.delete(c.tail)
	}
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *LRU) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *LRU) delete(e *entry) {
	if e == nil {
		return
	}
	delete(c.entries, e.key)
	c.unlink(e)
}

func cloneNarrative(n domain.Narrative) domain.Narrative {
	if n.Recommendations != nil {
		recs := make([]domain.Recommendation, len(n.Recommendations))
		copy(recs, n.Recommendations)
		n.Recommendations = recs
	}
	return n
}
