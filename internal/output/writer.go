// Package output writes local backup files of uploaded articles in JSON,
// CSV, or readable text form.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/pressrun/pressrun/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer persists a run's uploaded records to a local file and returns the
// path written.
type Writer interface {
	Write(records []domain.ArticleRecord) (string, error)
}

// NewWriter returns the writer for the given format. Supported formats are
// "json", "csv", and "text".
func NewWriter(format, dir string) (Writer, error) {
	switch format {
	case "json":
		return &JSONWriter{Dir: dir}, nil
	case "csv":
		return &CSVWriter{Dir: dir}, nil
	case "text":
		return &TextWriter{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// backupPath builds a timestamped file path inside dir, creating dir first.
func backupPath(dir, ext string) (string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := fmt.Sprintf("articles_%s.%s", time.Now().UTC().Format("20060102_150405"), ext)
	return filepath.Join(dir, name), nil
}

// JSONWriter writes records as an indented JSON array.
type JSONWriter struct {
	Dir string
}

func (w *JSONWriter) Write(records []domain.ArticleRecord) (string, error) {
	path, err := backupPath(w.Dir, "json")
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal articles: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// CSVWriter writes records as a flat CSV with a header row. Content is
// omitted; CSV backups are for spreadsheet review, not restoration.
type CSVWriter struct {
	Dir string
}

func (w *CSVWriter) Write(records []domain.ArticleRecord) (string, error) {
	path, err := backupPath(w.Dir, "csv")
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"url", "title", "author", "category", "published_at", "content_length"}
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range records {
		rec := &records[i]
		row := []string{
			rec.URL,
			rec.Title,
			rec.Author,
			rec.Category,
			rec.PublishedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(rec.ContentLength),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}
	return path, nil
}

// TextWriter writes records in a readable report form, one block per article.
type TextWriter struct {
	Dir string
}

func (w *TextWriter) Write(records []domain.ArticleRecord) (string, error) {
	path, err := backupPath(w.Dir, "txt")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := range records {
		rec := &records[i]
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rec.Title)
		fmt.Fprintf(&sb, "   URL: %s\n", rec.URL)
		if rec.Author != "" {
			fmt.Fprintf(&sb, "   Author: %s\n", rec.Author)
		}
		if rec.Category != "" {
			fmt.Fprintf(&sb, "   Category: %s\n", rec.Category)
		}
		fmt.Fprintf(&sb, "   Published: %s\n", rec.PublishedAt.UTC().Format(time.RFC3339))
		fmt.Fprintf(&sb, "   Content: %d chars\n\n", rec.ContentLength)
	}

	if err := os.WriteFile(path, []byte(sb.String()), filePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
