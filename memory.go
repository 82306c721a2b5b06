package main

import "sync"

// BytePool pools the small scratch buffers the RESP decoder uses while
// reading bulk-string payloads, adapted from the teacher's memory.go
// (there pooling whole binary-protocol messages, here pooling
// per-bulk read buffers to avoid an allocation per argument).
type BytePool struct {
	pool sync.Pool
}

func NewBytePool() *BytePool {
	return &BytePool{
		pool: sync.Pool{
			New: func() any {
				return make([]byte, 256)
			},
		},
	}
}

func (bp *BytePool) Get(size int) []byte {
	buf := bp.pool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, size)
	}
	return buf[:size]
}

func (bp *BytePool) Put(buf []byte) {
	if cap(buf) <= 64*1024 {
		bp.pool.Put(buf[:cap(buf)])
	}
}

// bytePool is the process-wide scratch pool used by the decoder.
var bytePool = NewBytePool()
