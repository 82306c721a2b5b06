package main

import "sync"

// ServerStats tracks operation counters, kept close to the teacher's
// stats.go: an RWMutex-guarded struct with a copying getter.
type ServerStats struct {
	mutex        sync.RWMutex
	TotalOps     uint64
	GetOps       uint64
	SetOps       uint64
	DelOps       uint64
	BytesRead    uint64
	BytesWritten uint64
	Connections  uint64
}

func (s *ServerStats) inc(stat string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.TotalOps++
	switch stat {
	case "get_ops":
		s.GetOps++
	case "set_ops":
		s.SetOps++
	case "del_ops":
		s.DelOps++
	case "connections":
		s.Connections++
	}
}

func (s *ServerStats) addBytesRead(n uint64) {
	s.mutex.Lock()
	s.BytesRead += n
	s.mutex.Unlock()
}

func (s *ServerStats) addBytesWritten(n uint64) {
	s.mutex.Lock()
	s.BytesWritten += n
	s.mutex.Unlock()
}

// Snapshot returns a copy of the current counters to avoid races with
// callers that print or compare fields after the call returns.
func (s *ServerStats) Snapshot() ServerStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return ServerStats{
		TotalOps:     s.TotalOps,
		GetOps:       s.GetOps,
		SetOps:       s.SetOps,
		DelOps:       s.DelOps,
		BytesRead:    s.BytesRead,
		BytesWritten: s.BytesWritten,
		Connections:  s.Connections,
	}
}
