package target

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"
)

var (
	// ErrSourceNotFound means the target list could not be located at all.
	ErrSourceNotFound = errors.New("target source not found")
	// ErrSourceEmpty means the source was read but yielded no entries.
	ErrSourceEmpty = errors.New("target source is empty")
)

// Source yields raw target entries. Implementations do not validate or
// deduplicate; that is Screen's job, shared across all sources.
type Source interface {
	Load(ctx context.Context) ([]Entry, error)
	Describe() string
}

// FileSource reads a line-oriented target list from a resolved file path.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]Entry, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("FileSource.Load %q: %w", s.Path, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("FileSource.Load: %w", err)
	}
	defer file.Close()

	entries, err := ParseLines(file)
	if err != nil {
		return nil, fmt.Errorf("FileSource.Load: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("FileSource.Load %q: %w", s.Path, ErrSourceEmpty)
	}
	return entries, nil
}

func (s FileSource) Describe() string {
	return "file:" + s.Path
}

// DBSource queries an inventory database for targets. The query text is
// loaded from SQLPath and must return identifiers in the first column; a
// second column, when present, is used as the label.
type DBSource struct {
	DB      *gorm.DB
	SQLPath string
}

func (s DBSource) Load(ctx context.Context) ([]Entry, error) {
	query, err := os.ReadFile(s.SQLPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("DBSource.Load sql file %q: %w", s.SQLPath, ErrSourceNotFound)
		}
		return nil, fmt.Errorf("DBSource.Load: %w", err)
	}

	rows, err := s.DB.WithContext(ctx).Raw(string(query)).Rows()
	if err != nil {
		return nil, fmt.Errorf("DBSource.Load: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("DBSource.Load: %w", err)
	}

	var entries []Entry
	for rows.Next() {
		var identifier, label string
		if len(cols) > 1 {
			extra := make([]any, len(cols)-2)
			for i := range extra {
				var junk any
				extra[i] = &junk
			}
			dest := append([]any{&identifier, &label}, extra...)
			if err = rows.Scan(dest...); err != nil {
				return nil, fmt.Errorf("DBSource.Load: %w", err)
			}
		} else {
			if err = rows.Scan(&identifier); err != nil {
				return nil, fmt.Errorf("DBSource.Load: %w", err)
			}
		}
		entries = append(entries, Entry{Identifier: identifier, Label: label, Raw: identifier})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("DBSource.Load: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("DBSource.Load: %w", ErrSourceEmpty)
	}
	return entries, nil
}

func (s DBSource) Describe() string {
	return "query:" + s.SQLPath
}
