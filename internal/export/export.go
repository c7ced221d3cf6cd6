// Package export writes daily entries and period breakdowns to CSV, JSON and
// YAML files.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatYAML
)

// Formats lists every format in picker order.
var Formats = []Format{FormatCSV, FormatJSON, FormatYAML}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "csv"
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatCSV, fmt.Errorf("unknown export format %q", s)
}

// FileName is the default export file name for day.
func FileName(f Format, day time.Time) string {
	return fmt.Sprintf("mytimemanager-export-%s.%s", day.Format("2006-01-02"), f)
}

// Write exports entries in format f into dir and returns the file path.
func Write(f Format, entries []store.EntryDetail, dir string, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName(f, now))
	var err error
	switch f {
	case FormatJSON:
		err = ToJSON(entries, path)
	case FormatYAML:
		err = ToYAML(entries, path)
	default:
		err = ToCSV(entries, path)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
