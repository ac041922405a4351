package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Progress is the durable checkpoint written after every completed page.
// lastProcessedId is a monotonic cursor over the clue order.
type Progress struct {
	LastProcessedID int64     `json:"lastProcessedId"`
	ProcessedCount  int       `json:"processedCount"`
	ErrorCount      int       `json:"errorCount"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// LoadProgress reads a checkpoint file. A missing file is not an error;
// it yields a nil Progress.
func LoadProgress(path string) (*Progress, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	return &p, nil
}

// Save overwrites the checkpoint atomically: the new content lands in a
// temp file first and is renamed into place, so a crash mid-write never
// leaves a torn checkpoint.
func (p *Progress) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// RunLog appends human-readable, timestamped lines to a file and mirrors
// them to the structured logger. A nil RunLog only mirrors.
type RunLog struct {
	mu   sync.Mutex
	file *os.File
}

// OpenRunLog opens the run log, appending when resuming and truncating
// otherwise.
func OpenRunLog(path string, resume bool) (*RunLog, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if resume {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	return &RunLog{file: file}, nil
}

func (l *RunLog) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Info().Msg(msg)
	l.append(msg)
}

func (l *RunLog) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Error().Msg(msg)
	l.append("ERROR: " + msg)
}

func (l *RunLog) append(msg string) {
	if l == nil || l.file == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.file, "[%s] %s\n", time.Now().UTC().Format(time.RFC3339), msg)
}

func (l *RunLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
