package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

type document struct {
	ExportedAt string  `json:"exported_at" yaml:"exported_at"`
	Count      int     `json:"count" yaml:"count"`
	Entries    []entry `json:"entries" yaml:"entries"`
}

type entry struct {
	TaskID    int64   `json:"task_id" yaml:"task_id"`
	Task      string  `json:"task" yaml:"task"`
	Pillar    string  `json:"pillar,omitempty" yaml:"pillar,omitempty"`
	Date      string  `json:"date" yaml:"date"`
	Hour      *int    `json:"hour,omitempty" yaml:"hour,omitempty"`
	Value     float64 `json:"value" yaml:"value"`
	UpdatedAt string  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func newDocument(entries []store.EntryDetail) document {
	doc := document{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, entry{
			TaskID:    e.TaskID,
			Task:      taskName(e),
			Pillar:    e.PillarName,
			Date:      period.FormatDate(e.Date),
			Hour:      e.Hour,
			Value:     e.Value,
			UpdatedAt: formatStamp(e.UpdatedAt),
		})
	}
	return doc
}

func ToJSON(entries []store.EntryDetail, path string) error {
	data, err := json.MarshalIndent(newDocument(entries), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func ToYAML(entries []store.EntryDetail, path string) error {
	data, err := yaml.Marshal(newDocument(entries))
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write yaml file: %w", err)
	}
	return nil
}
