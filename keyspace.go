package main

import (
	"container/heap"
	"strconv"
	"sync"
	"time"
)

// ttlEntry is one (deadline, key) record in the TTL index. Entries may
// be stale: the key they name may have been overwritten or deleted
// since the entry was pushed (spec.md §3's TTL index invariant). gen
// pins the entry to the TTL generation active at push time, so a later
// EXPIRE-cancel (gen bump with no corresponding push) can invalidate it
// without having to walk the heap and remove it in place.
type ttlEntry struct {
	deadline int64
	key      string
	gen      int64
}

// ttlHeap is a min-heap ordered by soonest deadline, grounded on
// original_source/redis.rs's BinaryHeap<Reverse<(u64, String)>>.
type ttlHeap []ttlEntry

func (h ttlHeap) Len() int            { return len(h) }
func (h ttlHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h ttlHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *ttlHeap) Push(x any)         { *h = append(*h, x.(ttlEntry)) }
func (h *ttlHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Keyspace is the concurrent map of key->Value plus the TTL index,
// guarded by one RWMutex (spec.md §5's SharedData bundle). Many
// readers may hold the read lock concurrently; every mutating command
// and the reaper take the write lock.
type Keyspace struct {
	mu      sync.RWMutex
	dict    map[string]*Value
	ttl     ttlHeap
	ttlGen  map[string]int64
	journal Writer
	stats   *ServerStats
}

func NewKeyspace(journal Writer, stats *ServerStats) *Keyspace {
	return &Keyspace{
		dict:    make(map[string]*Value, 256),
		ttl:     ttlHeap{},
		ttlGen:  make(map[string]int64),
		journal: journal,
		stats:   stats,
	}
}

func (k *Keyspace) Size() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.dict)
}

// Exec runs one command to completion and returns its Reply. Mutating
// commands invoke the journal BEFORE applying the mutation, outside
// the keyspace lock (spec.md §5: a critical section must not itself
// await I/O).
func (k *Keyspace) Exec(cmd *Command) Reply {
	if isMutating(cmd.Kind) {
		k.journal.Write(cmd)
	}

	switch cmd.Kind {
	case CmdPing:
		return simpleStringReply([]byte("PONG"))

	case CmdCommandDocs:
		// COMMAND DOCS replies with an empty bulk-string list, which
		// encodes identically to the null bulk (spec.md §4.2's
		// BulkString(empty list) row).
		return emptyStringReply()

	case CmdDBSize:
		return integerReply(int64(k.Size()))

	case CmdGet:
		return k.execGet(cmd.Key)

	case CmdSet:
		k.stats.inc("set_ops")
		k.execSet(cmd.Key, cmd.Value)
		return okReply()

	case CmdSetEx:
		k.stats.inc("set_ops")
		k.execSetEx(cmd.Key, cmd.Value, cmd.TTL)
		return okReply()

	case CmdLPush:
		return k.execPush(cmd.Key, cmd.Values, true, false)
	case CmdRPush:
		return k.execPush(cmd.Key, cmd.Values, false, false)
	case CmdLPushX:
		return k.execPush(cmd.Key, cmd.Values, true, true)
	case CmdRPushX:
		return k.execPush(cmd.Key, cmd.Values, false, true)

	case CmdLPop:
		return k.execPop(cmd.Key, true, cmd.Count)
	case CmdRPop:
		return k.execPop(cmd.Key, false, cmd.Count)

	case CmdDel:
		k.stats.inc("del_ops")
		return k.execDel(cmd.Keys)

	case CmdIncr:
		return k.execIncrDecr(cmd.Key, 1)
	case CmdDecr:
		return k.execIncrDecr(cmd.Key, -1)

	case CmdExists:
		return k.execExists(cmd.Keys)

	case CmdExpire:
		return k.execExpire(cmd.Key, cmd.TTL)

	case CmdTTL:
		return k.execTTL(cmd.Key)

	case CmdMGet:
		return k.execMGet(cmd.Keys)

	case CmdMSet:
		return k.execMSet(cmd.Values)

	default:
		return errReply("unknown command")
	}
}

func isMutating(kind CmdKind) bool {
	switch kind {
	case CmdSet, CmdSetEx, CmdLPush, CmdRPush, CmdLPushX, CmdRPushX,
		CmdLPop, CmdRPop, CmdDel, CmdIncr, CmdDecr, CmdExpire, CmdMSet:
		return true
	}
	return false
}

func now() int64 { return time.Now().Unix() }

func (k *Keyspace) execGet(key string) Reply {
	k.stats.inc("get_ops")

	k.mu.RLock()
	v, ok := k.dict[key]
	k.mu.RUnlock()

	if !ok {
		return emptyStringReply()
	}
	if v.Kind != KindString {
		return typeErrReply()
	}
	return simpleStringReply(v.Bytes)
}

func (k *Keyspace) execSet(key string, value []byte) {
	k.mu.Lock()
	k.dict[key] = stringValue(value)
	k.mu.Unlock()
}

func (k *Keyspace) execSetEx(key string, value []byte, ttlSeconds int64) {
	deadline := now() + ttlSeconds
	k.mu.Lock()
	k.dict[key] = stringValue(value)
	k.ttlGen[key]++
	heap.Push(&k.ttl, ttlEntry{deadline: deadline, key: key, gen: k.ttlGen[key]})
	k.mu.Unlock()
}

// execPush implements LPUSH/RPUSH/LPUSHX/RPUSHX. front selects which
// end to push to; xVariant forbids creation on an absent key. The
// front/back flag is honoured on both the creation path and the
// mutation path (spec.md §9.4's REDESIGN FLAG — the teacher's bug of
// always pushing to the front on mutation is not reproduced here).
func (k *Keyspace) execPush(key string, values [][]byte, front, xVariant bool) Reply {
	k.mu.Lock()
	defer k.mu.Unlock()

	v, exists := k.dict[key]
	if !exists {
		if xVariant {
			return integerReply(int64(len(values)))
		}
		v = listValue(NewList())
		k.dict[key] = v
	} else if v.Kind != KindList {
		return typeErrReply()
	}

	var length int
	for _, val := range values {
		if front {
			length = v.List.LeftPush(val)
		} else {
			length = v.List.RightPush(val)
		}
	}
	return integerReply(int64(length))
}

// execPop implements LPOP/RPOP. Per spec.md §9.3, popping a list to
// empty does not remove the key.
func (k *Keyspace) execPop(key string, front bool, count int) Reply {
	k.mu.Lock()
	defer k.mu.Unlock()

	v, exists := k.dict[key]
	if !exists {
		return nullArrayReply()
	}
	if v.Kind != KindList {
		return typeErrReply()
	}

	var popped [][]byte
	if front {
		popped = v.List.LeftPop(count)
	} else {
		popped = v.List.RightPop(count)
	}
	return arrayReply(popped)
}

func (k *Keyspace) execDel(keys []string) Reply {
	k.mu.Lock()
	defer k.mu.Unlock()

	var removed int64
	for _, key := range keys {
		if _, ok := k.dict[key]; ok {
			delete(k.dict, key)
			removed++
		}
	}
	return integerReply(removed)
}

// execIncrDecr implements INCR (delta=1) and DECR (delta=-1).
func (k *Keyspace) execIncrDecr(key string, delta int64) Reply {
	k.mu.Lock()
	defer k.mu.Unlock()

	var current int64
	if v, exists := k.dict[key]; exists {
		if v.Kind != KindString {
			return typeErrReply()
		}
		parsed, err := strconv.ParseInt(string(v.Bytes), 10, 64)
		if err != nil {
			return typeErrReply()
		}
		current = parsed
	}

	if delta > 0 && current > maxInt64-delta {
		return typeErrReply()
	}
	if delta < 0 && current < minInt64-delta {
		return typeErrReply()
	}

	next := current + delta
	k.dict[key] = stringValue([]byte(strconv.FormatInt(next, 10)))
	return integerReply(next)
}

const (
	maxInt64 = int64(1<<63 - 1)
	minInt64 = -maxInt64 - 1
)

func (k *Keyspace) execExists(keys []string) Reply {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var count int64
	for _, key := range keys {
		if _, ok := k.dict[key]; ok {
			count++
		}
	}
	return integerReply(count)
}

// execExpire installs or refreshes a TTL on an existing key; ttl=0
// cancels any TTL rather than expiring the key immediately (no
// grounding source states otherwise; see DESIGN.md). Cancelling bumps
// the key's TTL generation so any already-pushed heap entries for it
// (e.g. from an earlier SETEX) stop matching and are treated as stale
// by execTTL and reap, instead of merely skipping the push and leaving
// the old entry live.
func (k *Keyspace) execExpire(key string, ttlSeconds int64) Reply {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.dict[key]; !ok {
		return integerReply(0)
	}
	k.ttlGen[key]++
	if ttlSeconds > 0 {
		heap.Push(&k.ttl, ttlEntry{deadline: now() + ttlSeconds, key: key, gen: k.ttlGen[key]})
	}
	return integerReply(1)
}

// execTTL reports remaining seconds: -2 absent, -1 no TTL set, else
// the soonest outstanding TTL entry's remaining time. Only entries
// matching the key's current TTL generation count; a stale entry left
// behind by a cancelled or superseded TTL is ignored. Because the TTL
// index tolerates staleness, this is a best-effort scan, not an
// authoritative per-key TTL lookup.
func (k *Keyspace) execTTL(key string) Reply {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if _, ok := k.dict[key]; !ok {
		return integerReply(-2)
	}

	currentGen := k.ttlGen[key]
	var soonest int64 = -1
	for _, e := range k.ttl {
		if e.key == key && e.gen == currentGen && (soonest == -1 || e.deadline < soonest) {
			soonest = e.deadline
		}
	}
	if soonest == -1 {
		return integerReply(-1)
	}
	remaining := soonest - now()
	if remaining <= 0 {
		return integerReply(-2)
	}
	return integerReply(remaining)
}

func (k *Keyspace) execMGet(keys []string) Reply {
	k.stats.inc("get_ops")

	k.mu.RLock()
	defer k.mu.RUnlock()

	items := make([][]byte, len(keys))
	for i, key := range keys {
		v, ok := k.dict[key]
		if !ok || v.Kind != KindString {
			items[i] = nil
			continue
		}
		items[i] = v.Bytes
	}
	return arrayReply(items)
}

// execMSet applies all pairs under a single write-lock acquisition so
// no interleaving write from another connection can land mid-batch.
func (k *Keyspace) execMSet(pairs [][]byte) Reply {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i := 0; i+1 < len(pairs); i += 2 {
		k.dict[string(pairs[i])] = stringValue(pairs[i+1])
	}
	return okReply()
}

// reap evicts keys whose TTL deadline has passed, tolerating stale
// entries whose key was already deleted or replaced without a TTL. An
// entry whose generation no longer matches the key's current TTL
// generation (cancelled by EXPIRE 0, or superseded by a later SETEX/
// EXPIRE) is popped and otherwise ignored rather than deleting the key.
// Called by the reaper (C5) once per tick, under the write lock.
func (k *Keyspace) reap() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.ttl) == 0 {
		return
	}
	n := now()
	for len(k.ttl) > 0 {
		entry := k.ttl[0]
		if entry.deadline >= n {
			break
		}
		heap.Pop(&k.ttl)
		if entry.gen == k.ttlGen[entry.key] {
			delete(k.dict, entry.key)
		}
	}
}
