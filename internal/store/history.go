package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwbudde/curvefit/internal/fit"
)

// HistoryEntry records the outcome of fitting a dataset at save time.
// Each entry is one JSON line in history.jsonl.
type HistoryEntry struct {
	Method    string    `json:"method"`
	Points    int       `json:"points"`
	Equation  string    `json:"equation,omitempty"`
	MSE       *float64  `json:"mse,omitempty"`
	Error     string    `json:"error,omitempty"` // fit failure kind when no model was built
	Timestamp time.Time `json:"timestamp"`
}

// NewHistoryEntry summarizes the fit of d. Exactly one of report and fitErr
// is expected to be set.
func NewHistoryEntry(d *Dataset, report *fit.Report, fitErr error) HistoryEntry {
	entry := HistoryEntry{
		Method:    d.Config.String(),
		Points:    len(d.Points),
		Timestamp: time.Now(),
	}
	if report != nil && report.Model != nil {
		mse := report.MSE
		entry.MSE = &mse
		entry.Equation = report.Model.Equation()
	}
	var e *fit.Error
	if errors.As(fitErr, &e) {
		entry.Error = string(e.Kind)
	}
	return entry
}

// historyLog serializes appends to history files.
type historyLog struct {
	mu sync.Mutex
}

func (fs *FSStore) historyPath(name string) string {
	return filepath.Join(fs.DatasetDir(name), "history.jsonl")
}

// AppendHistory adds an entry to a saved dataset's history.
func (fs *FSStore) AppendHistory(name string, entry HistoryEntry) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if _, err := os.Stat(fs.datasetPath(name)); errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{Name: name}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	data = append(data, '\n')

	fs.history.mu.Lock()
	defer fs.history.mu.Unlock()

	file, err := os.OpenFile(fs.historyPath(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write history entry: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close history file: %w", err)
	}
	return nil
}

// History reads every entry recorded for a dataset.
func (fs *FSStore) History(name string) ([]HistoryEntry, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := os.Stat(fs.datasetPath(name)); errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Name: name}
	}

	file, err := os.Open(fs.historyPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return []HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	return readHistory(file)
}

func readHistory(r io.Reader) ([]HistoryEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	entries := []HistoryEntry{}
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry HistoryEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry %d: %w", len(entries)+1, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}
	return entries, nil
}
