package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/comp-scout/internal/competition"
	"github.com/pfrederiksen/comp-scout/internal/match"
)

// ExpandPath expands a leading ~/ to the home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// LoadTracked loads tracked records from path. A missing file is an
// error; an empty list is not.
func LoadTracked(path string) ([]match.TrackedRecord, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tracked records: %w", err)
	}

	records, err := ParseTracked(data)
	if err != nil {
		return nil, fmt.Errorf("parsing tracked records %s: %w", path, err)
	}
	return records, nil
}

// ParseTracked decodes tracked records and fills in missing normalized
// titles.
func ParseTracked(data []byte) ([]match.TrackedRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	var records []match.TrackedRecord
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	} else {
		var doc struct {
			Records []match.TrackedRecord `json:"records"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		records = doc.Records
	}

	for i := range records {
		if records[i].ID == "" {
			return nil, fmt.Errorf("record %d has no id", i)
		}
		if records[i].NormalizedTitle == "" {
			records[i].NormalizedTitle = competition.NormalizeTitle(records[i].Title)
		}
	}
	return records, nil
}
