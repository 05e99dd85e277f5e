package appointments

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore appends appointments to a JSON-lines file, one object per line.
// It is the fallback store for deployments without a database.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a JSON-lines store at path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("appointments: file path required")
	}
	return &FileStore{path: path}
}

// Insert appends one appointment line. The write is serialized so
// concurrent confirmations never interleave lines.
func (s *FileStore) Insert(_ context.Context, apt Appointment) error {
	data, err := json.Marshal(apt)
	if err != nil {
		return fmt.Errorf("appointments: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("appointments: open %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appointments: append %s: %w", s.path, err)
	}
	return nil
}

// ListRecent reads the file back, newest first. Unparseable lines are
// skipped rather than failing the whole listing.
func (s *FileStore) ListRecent(_ context.Context, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("appointments: open %s: %w", s.path, err)
	}
	defer f.Close()

	var all []Appointment
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var apt Appointment
		if err := json.Unmarshal(scanner.Bytes(), &apt); err != nil {
			continue
		}
		all = append(all, apt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("appointments: read %s: %w", s.path, err)
	}

	out := make([]Appointment, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
