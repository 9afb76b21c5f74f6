package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RecordBook remembers which courses were marked on which day on this device.
type RecordBook interface {
	Has(courseCode, date string) bool
	Put(courseCode, date string) error
}

func recordKey(courseCode, date string) string {
	return "attendance_" + strings.ToUpper(courseCode) + "_" + date
}

// MemoryRecordBook is a RecordBook that lives for the process.
type MemoryRecordBook struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func NewMemoryRecordBook() *MemoryRecordBook {
	return &MemoryRecordBook{keys: make(map[string]bool)}
}

func (b *MemoryRecordBook) Has(courseCode, date string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.keys[recordKey(courseCode, date)]
}

func (b *MemoryRecordBook) Put(courseCode, date string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys[recordKey(courseCode, date)] = true
	return nil
}

// FileRecordBook persists records as a JSON object in a file so a later run
// on the same device sees earlier check-ins.
type FileRecordBook struct {
	path string
	mem  *MemoryRecordBook
}

// OpenFileRecordBook loads path, treating a missing file as empty.
func OpenFileRecordBook(path string) (*FileRecordBook, error) {
	b := &FileRecordBook{path: path, mem: NewMemoryRecordBook()}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record book: %w", err)
	}
	if len(data) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(data, &b.mem.keys); err != nil {
		return nil, fmt.Errorf("decode record book: %w", err)
	}
	if b.mem.keys == nil {
		b.mem.keys = make(map[string]bool)
	}
	return b, nil
}

func (b *FileRecordBook) Has(courseCode, date string) bool {
	return b.mem.Has(courseCode, date)
}

func (b *FileRecordBook) Put(courseCode, date string) error {
	if err := b.mem.Put(courseCode, date); err != nil {
		return err
	}
	b.mem.mu.RLock()
	data, err := json.MarshalIndent(b.mem.keys, "", "  ")
	b.mem.mu.RUnlock()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(b.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create record book dir: %w", err)
		}
	}
	if err := os.WriteFile(b.path, data, 0o644); err != nil {
		return fmt.Errorf("write record book: %w", err)
	}
	return nil
}
