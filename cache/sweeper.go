package cache

import "time"

// sweepLoop runs Sweep with fixed delay between sweeps, until Stop.
// First sweep starts after half of interval.
func (c *Engine[K]) sweepLoop() {
	defer close(c.sweeperDone)
	c.sweepLog.Debugf("Sweeper started. Interval %v.", c.conf.SweepInterval)
	timer := time.NewTimer(c.conf.SweepInterval / 2)
	defer timer.Stop()
	for {
		select {
		case <-c.stop:
			c.sweepLog.Debug("Sweeper stopped.")
			return
		case <-timer.C:
		}
		c.Sweep()
		timer.Reset(c.conf.SweepInterval)
	}
}

// Sweep removes expired keys and returns how many was evicted.
// Keys are snapshot under read lock, then every key is checked and removed
// under its own write lock acquisition against current state. So keys removed
// or refreshed after snapshot are skipped.
// Fault on one key is logged and does not stop the sweep.
func (c *Engine[K]) Sweep() (evicted int) {
	start := time.Now()
	defer c.metrics.sweep.UpdateSince(start)
	for _, key := range c.Keys() {
		if c.sweepKey(key) {
			evicted++
		}
	}
	if evicted > 0 {
		c.sweepLog.Debugf("Evicted %v expired keys.", evicted)
	}
	return
}

func (c *Engine[K]) sweepKey(key K) (evicted bool) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.sweepFault.Inc(1)
			c.sweepLog.Errorf("Sweep of %v failed: %v", key, r)
		}
	}()
	if !c.removeExpired(key) {
		return false
	}
	evicted = true
	c.metrics.expire.Inc(1)
	if c.conf.OnExpire != nil {
		c.conf.OnExpire(key)
	}
	return
}

func (c *Engine[K]) removeExpired(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.checkInvariants()
	n, ok := c.table[key]
	if !ok || !n.expired(c.conf.Clock.Now()) {
		return false
	}
	c.sweepLog.Debugf("Expire %v.", key)
	c.delete(n)
	return true
}
