package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/skipor/addrcache/log"
)

const (
	DefaultTTL           = 5 * time.Second
	DefaultSweepInterval = 5 * time.Second
)

var (
	ErrNegativeTTL = errors.New("negative ttl")
	ErrKeyRejected = errors.New("key rejected")
)

// Cache is stack ordered set of keys with expiry.
// All methods except Take are non-blocking.
type Cache[K comparable] interface {
	// Offer adds key on top, or refreshes expiry of present key and moves it on top.
	// Returns false only on internal fault. Cache is not modified in such case.
	Offer(key K) bool
	// Contains reports whether key is present. Expired but not swept key is present.
	Contains(key K) bool
	// Remove returns true if key was present.
	Remove(key K) (removed bool)
	// Pop removes and returns top key.
	Pop() (key K, ok bool)
	// Peek returns top key without removal.
	Peek() (key K, ok bool)
	// Take waits until cache is not empty, then pops top key.
	// On ctx done returns ctx.Err(), and nothing is removed.
	Take(ctx context.Context) (key K, err error)
	// Close removes all keys. Cache remains usable after Close.
	Close()
	// Len returns number of present keys.
	Len() int
	// IsEmpty reports whether Len is zero.
	IsEmpty() bool
	// Expire returns time to live of offered keys.
	Expire() time.Duration
}

type Config[K comparable] struct {
	// TTL is time to live of offered or refreshed key. Zero means DefaultTTL.
	TTL time.Duration
	// SweepInterval is delay between end of one sweep and start of next one.
	// Zero means DefaultSweepInterval. Negative disables background sweeps.
	SweepInterval time.Duration
	Clock         Clock
	// Validate is called on every Offer. Error rejects the key.
	Validate func(K) error
	// OnExpire is called by sweeper without lock acquired, after key eviction.
	OnExpire func(K)
	Metrics  metrics.Registry
}

func (c *Config[K]) setDefaults() error {
	if c.TTL < 0 {
		return stackerr.Wrap(ErrNegativeTTL)
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.Clock == nil {
		c.Clock = WallClock
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewRegistry()
	}
	return nil
}

// Engine is Cache implementation.
// Index table and order list are one resource guarded by mu.
// Invariants, out of held lock:
// * len(table) == order.size
// * every table node is owned by order and holds its table key
// * order is sorted by write time, most recent first
type Engine[K comparable] struct {
	mu sync.RWMutex
	// nonEmpty is broadcast on every Offer and on Take context done.
	nonEmpty *sync.Cond
	table    map[K]*node[K]
	order    *list[K]

	conf     Config[K]
	log      log.Logger
	sweepLog log.Logger
	metrics  engineMetrics

	stopOnce    sync.Once
	stop        chan struct{}
	sweeperDone chan struct{}
}

var _ Cache[string] = (*Engine[string])(nil)

// New creates Engine and starts its sweeper. Call Stop to release sweeper goroutine.
func New[K comparable](l log.Logger, conf Config[K]) (*Engine[K], error) {
	err := conf.setDefaults()
	if err != nil {
		return nil, err
	}
	c := &Engine[K]{
		table:       make(map[K]*node[K]),
		order:       newList[K](),
		conf:        conf,
		log:         l,
		sweepLog:    l.WithFields(log.Fields{"component": "sweeper"}),
		stop:        make(chan struct{}),
		sweeperDone: make(chan struct{}),
	}
	c.nonEmpty = sync.NewCond(&c.mu)
	c.metrics = newEngineMetrics(conf.Metrics, func() int64 { return int64(c.Len()) })
	if conf.SweepInterval > 0 {
		go c.sweepLoop()
	} else {
		c.log.Info("Background sweeps disabled.")
		close(c.sweeperDone)
	}
	return c, nil
}

func (c *Engine[K]) Offer(key K) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.reject.Inc(1)
			c.log.Errorf("Offer %v failed: %v", key, r)
			ok = false
		}
	}()
	if c.conf.Validate != nil {
		if err := c.conf.Validate(key); err != nil {
			c.metrics.reject.Inc(1)
			c.log.Warnf("Offer %v rejected: %v", key, err)
			return false
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	c.offer(key)
	return true
}

// offer requires write lock be acquired.
func (c *Engine[K]) offer(key K) {
	e := entry[K]{Key: key, Expiry: c.conf.Clock.Now().Add(c.conf.TTL)}
	old, refresh := c.table[key]
	// Push before detach of old node: if push fails, cache is untouched.
	n := c.order.pushFront(e)
	if refresh {
		c.log.Debugf("Refresh %v.", key)
		c.order.remove(old)
		c.metrics.refresh.Inc(1)
	} else {
		c.log.Debugf("Add %v.", key)
	}
	c.table[key] = n
	c.metrics.offer.Inc(1)
	c.nonEmpty.Broadcast()
}

func (c *Engine[K]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.table[key]
	return ok
}

func (c *Engine[K]) Remove(key K) (removed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	n, ok := c.table[key]
	if !ok {
		return false
	}
	c.delete(n)
	c.metrics.remove.Inc(1)
	return true
}

func (c *Engine[K]) Pop() (key K, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	key, ok = c.pop()
	if ok {
		c.metrics.remove.Inc(1)
	}
	return
}

func (c *Engine[K]) Peek() (key K, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n := c.order.front(); n != nil {
		return n.Key, true
	}
	return
}

// Take pops top key immediately if cache is not empty, even when ctx is already done.
func (c *Engine[K]) Take(ctx context.Context) (key K, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	if c.order.empty() {
		c.metrics.takeWait.Inc(1)
		// Context done is another wake cause. Waiter distinguish it by ctx.Err().
		stopWake := context.AfterFunc(ctx, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.nonEmpty.Broadcast()
		})
		defer stopWake()
		for c.order.empty() {
			if err = ctx.Err(); err != nil {
				c.metrics.takeCancel.Inc(1)
				return
			}
			c.nonEmpty.Wait()
		}
	}
	key, _ = c.pop()
	c.metrics.take.Inc(1)
	return
}

func (c *Engine[K]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	c.log.Debugf("Close. Drop %v keys.", len(c.table))
	c.table = make(map[K]*node[K])
	c.order = newList[K]()
}

func (c *Engine[K]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

func (c *Engine[K]) IsEmpty() bool { return c.Len() == 0 }

func (c *Engine[K]) Expire() time.Duration { return c.conf.TTL }

// Keys returns snapshot of keys from most to least recent.
func (c *Engine[K]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.keys()
}

func (c *Engine[K]) Metrics() metrics.Registry { return c.conf.Metrics }

// Stop stops background sweeps and waits sweeper exit. Cache remains usable.
func (c *Engine[K]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.sweeperDone
}

// pop requires write lock be acquired.
// Front node is always the table node of its key, so table entry is deleted unconditionally.
func (c *Engine[K]) pop() (key K, ok bool) {
	e, ok := c.order.popFront()
	if !ok {
		return
	}
	delete(c.table, e.Key)
	return e.Key, true
}

// delete removes node from order and table. Requires write lock be acquired.
func (c *Engine[K]) delete(n *node[K]) {
	key := n.Key
	c.order.remove(n)
	if c.table[key] == n {
		delete(c.table, key)
	}
}

func (c *Engine[K]) GoString() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("{size:%v, order:%v}", len(c.table), c.order)
}
