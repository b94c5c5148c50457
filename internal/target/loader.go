package target

import (
	"bufio"
	"io"
	"strings"
)

const commentMarker = "#"

// ParseLines reads a line-oriented target list: one identifier per line,
// optional whitespace-separated label, '#' starts a comment (full-line or
// inline). Blank and comment-only lines are skipped.
func ParseLines(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, commentMarker); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		entry := Entry{
			Identifier: fields[0],
			Raw:        line,
		}
		if len(fields) > 1 {
			entry.Label = strings.Join(fields[1:], " ")
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Screen validates and deduplicates entries. Accepted targets keep first-seen
// order; later duplicates of the same normalized identifier are dropped
// silently. Entries failing the identifier syntax check are returned as their
// raw input lines.
func Screen(entries []Entry) (targets []Target, invalid []string) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		id := Normalize(e.Identifier)
		if !IsValidIdentifier(id) {
			invalid = append(invalid, e.Raw)
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, Target{Identifier: id, Label: e.Label})
	}
	return targets, invalid
}
