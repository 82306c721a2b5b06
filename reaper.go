package main

import (
	"log"
	"time"
)

// Reaper is the background lazy-expiration task (C5), grounded on the
// teacher's cleanupExpiredKeys ticker goroutine and retimed to the
// one-tick-pop-until-live-or-empty discipline of
// original_source/redis.rs's spawn_ttl_heap_cleaner.
type Reaper struct {
	keyspace *Keyspace
	interval time.Duration
	stop     chan struct{}
}

func NewReaper(k *Keyspace, interval time.Duration) *Reaper {
	return &Reaper{keyspace: k, interval: interval, stop: make(chan struct{})}
}

// Run ticks until Stop is called. Each tick acquires the keyspace
// write lock only long enough to pop stale entries (Keyspace.reap),
// never while awaiting I/O.
func (r *Reaper) Run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.keyspace.reap()
		case <-r.stop:
			return
		}
	}
}

func (r *Reaper) Stop() {
	close(r.stop)
}

// SetInterval records a new tick period from the config layer (C8).
// Run reads the period only when it starts, so a Run loop already in
// progress keeps ticking at its original period.
func (r *Reaper) SetInterval(d time.Duration) {
	log.Printf("reaper interval will change to %s on next restart", d)
	r.interval = d
}
