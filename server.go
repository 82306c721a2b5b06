package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"
)

// statsReportInterval is how often Start logs a ServerStats snapshot,
// the introspection path SPEC_FULL.md §4.9 describes in place of a
// wire-level STATS command.
const statsReportInterval = 30 * time.Second

// Server is the TCP accept loop and connection registry (C6's outer
// shell), grounded on the teacher's GoFastServer.Start/handleConnection.
type Server struct {
	config   *Config
	keyspace *Keyspace
	stats    *ServerStats
	reaper   *Reaper
	journal  *FileJournal

	listener  net.Listener
	active    int64
	statsStop chan struct{}
}

func NewServer(cfg *Config) (*Server, error) {
	stats := &ServerStats{}

	var journalWriter Writer = DisabledJournal{}
	var fileJournal *FileJournal
	if cfg.EnablePersist {
		fj, err := NewFileJournal(cfg.DataDir, cfg.JournalFile)
		if err != nil {
			return nil, err
		}
		journalWriter = fj
		fileJournal = fj
	}

	ks := NewKeyspace(journalWriter, stats)
	reaper := NewReaper(ks, cfg.ReaperInterval)

	return &Server{
		config:    cfg,
		keyspace:  ks,
		stats:     stats,
		reaper:    reaper,
		journal:   fileJournal,
		statsStop: make(chan struct{}),
	}, nil
}

// Start binds the listener, launches the reaper, and accepts
// connections until Stop is called.
func (s *Server) Start(bindAddr string) error {
	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", bindAddr, err)
	}
	s.listener = listener
	log.Printf("redcore listening on %s", bindAddr)

	go s.reaper.Run()
	go s.runStatsReporter()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("accept error: %v", err)
			continue
		}

		if s.config.MaxClients > 0 && atomic.LoadInt64(&s.active) >= int64(s.config.MaxClients) {
			log.Printf("rejecting connection from %s: max clients reached", conn.RemoteAddr())
			conn.Close()
			continue
		}

		atomic.AddInt64(&s.active, 1)
		s.stats.inc("connections")
		go s.handleConnection(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.reaper.Stop()
	close(s.statsStop)
	if s.journal != nil {
		s.journal.Close()
	}
}

// runStatsReporter periodically logs a ServerStats snapshot, the only
// place Snapshot is consulted: this spec has no wire-level STATS
// command (spec.md §1's fixed command set excludes extra protocol
// surface), so operators read counters from the log instead.
func (s *Server) runStatsReporter() {
	ticker := time.NewTicker(statsReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := s.stats.Snapshot()
			log.Printf("stats: ops=%d get=%d set=%d del=%d bytes_read=%d bytes_written=%d connections=%d",
				snap.TotalOps, snap.GetOps, snap.SetOps, snap.DelOps,
				snap.BytesRead, snap.BytesWritten, snap.Connections)
		case <-s.statsStop:
			return
		}
	}
}

// handleConnection runs the per-connection read-dispatch-write loop
// (C6), grounded on the teacher's handleConnection but reading RESP
// frames instead of the binary protocol.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		conn.Close()
		atomic.AddInt64(&s.active, -1)
	}()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		if s.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		}

		tokens, err := readFrame(reader)
		var parseErr *ParseError
		if err != nil && !errors.As(err, &parseErr) {
			if !errors.Is(err, io.EOF) {
				log.Printf("read error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		var reply Reply
		if parseErr != nil {
			reply = errReply(parseErr.Error())
		} else if tokens == nil {
			// An empty line signals "close the connection"
			// (spec.md §4.6, §9 — preserved idiosyncratic behaviour).
			reply = nothingReply()
		} else {
			cmd, perr := decodeCommand(tokens)
			if perr != nil {
				reply = errReply(perr.Error())
			} else {
				reply = s.keyspace.Exec(cmd)
			}
		}

		for _, tok := range tokens {
			s.stats.addBytesRead(uint64(len(tok)))
		}

		out := encodeReply(reply)
		s.stats.addBytesWritten(uint64(len(out)))

		if s.config.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		}
		if _, err := writer.Write(out); err != nil {
			log.Printf("write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Printf("flush error to %s: %v", conn.RemoteAddr(), err)
			return
		}

		if reply.Kind == ReplyNothing {
			return
		}
	}
}
