package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// FileMode is rw-r--r--.
const FileMode fs.FileMode = 0o644

// WAL is an append-only log of JSON records, one per line.
// Every Write is fsynced before it returns.
type WAL struct {
	file *os.File
	mu   sync.Mutex
}

// Open opens or creates the log at path.
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open wal: %w", err)
	}
	return &WAL{file: file}, nil
}

// Write appends one record and syncs it to disk.
func (w *WAL) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := json.NewEncoder(w.file).Encode(v); err != nil {
		return fmt.Errorf("failed to write wal record: %w", err)
	}
	return w.file.Sync()
}

// ErrCorrupt is returned when a complete record in the log is not valid JSON.
var ErrCorrupt = errors.New("wal record is corrupt")

// ReadAll calls fn for each record from the start of the log.
// A trailing record without its newline was never acknowledged by Write;
// it is cut off and the log continues from the last complete record.
func (w *WAL) ReadAll(fn func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(w.file)
	var offset int64
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil
			}
			return w.truncate(offset)
		}
		if err != nil {
			return fmt.Errorf("failed to read wal record: %w", err)
		}

		raw := bytes.TrimSpace(line)
		if len(raw) > 0 {
			if !json.Valid(raw) {
				return fmt.Errorf("%w at offset %d", ErrCorrupt, offset)
			}
			if err := fn(raw); err != nil {
				return err
			}
		}
		offset += int64(len(line))
	}
}

func (w *WAL) truncate(size int64) error {
	if err := w.file.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate torn wal record: %w", err)
	}
	if _, err := w.file.Seek(size, io.SeekStart); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
