package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Journal keeps a copy of every incoming device request as a JSON file.
// An empty directory disables it.
type Journal struct {
	Dir string
}

func NewJournal(dir string) *Journal {
	return &Journal{Dir: dir}
}

func (j *Journal) Enabled() bool {
	return j != nil && j.Dir != ""
}

// SaveJSON writes data to "<yyyymmddThhmmss>-<operation>-<uuid>.json" and
// returns the file name.
func (j *Journal) SaveJSON(operation string, data any) (string, error) {
	if !j.Enabled() {
		return "", nil
	}
	if err := os.MkdirAll(j.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create journal directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s-%s.json", time.Now().UTC().Format("20060102T150405"), operation, uuid.NewString())
	path := filepath.Join(j.Dir, filename)

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write journal file: %w", err)
	}

	log.Printf("[AUDIT] Journaled %s request to %s", operation, path)
	return filename, nil
}
