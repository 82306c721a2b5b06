package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Writer is the journal sink (C7): a pluggable write-ahead observer
// invoked once per mutating command, before the mutation is applied.
// Grounded on original_source/journal.rs's `Writer` trait (`Disabled`,
// `Simple`); Go needs no async trait equivalent since there is no
// async runtime here, so Write is a plain synchronous method.
type Writer interface {
	Write(cmd *Command)
}

// DisabledJournal is the no-op sink, grounded on journal.rs's Disabled.
type DisabledJournal struct{}

func (DisabledJournal) Write(cmd *Command) {}

// FileJournal appends a line per mutating command to a file, grounded
// on journal.rs's Simple file-appender. It reuses the teacher's
// EnablePersist/DataDir config fields, which the teacher declared but
// never wired to any code path.
type FileJournal struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

func NewFileJournal(dataDir, fileName string) (*FileJournal, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}
	path := filepath.Join(dataDir, fileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &FileJournal{file: f, writer: bufio.NewWriter(f)}, nil
}

// Write appends a line describing cmd. Failures are logged and
// swallowed: spec.md §9 leaves journal-failure policy to the sink, and
// this sink's policy is "don't fail the mutating command".
func (j *FileJournal) Write(cmd *Command) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := fmt.Fprintf(j.writer, "cmd=%d key=%s\n", cmd.Kind, describeCommand(cmd)); err != nil {
		log.Printf("journal write failed: %v", err)
		return
	}
	if err := j.writer.Flush(); err != nil {
		log.Printf("journal flush failed: %v", err)
	}
}

func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writer.Flush(); err != nil {
		return err
	}
	return j.file.Close()
}

func describeCommand(cmd *Command) string {
	if cmd.Key != "" {
		return cmd.Key
	}
	if len(cmd.Keys) > 0 {
		return fmt.Sprintf("%v", cmd.Keys)
	}
	return ""
}
