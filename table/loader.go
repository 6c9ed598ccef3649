package table

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sodiumhq/kanacore/internal/specialkey"
)

// Load parses a rewrite-table file (spec §6.1): tab-separated rows of
// input, result, pending, and an optional comma-separated attribute list.
// Special-key markers of the form "{name}" in input or pending are
// replaced with their sentinel encoding before the rule is stored.
func Load(r io.Reader) (*Table, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("table: line %d: expected at least 3 tab-separated fields, got %d", lineNo, len(fields))
		}
		var attrs Attribute
		if len(fields) >= 4 {
			var err error
			attrs, err = ParseAttributes(fields[3])
			if err != nil {
				return nil, fmt.Errorf("table: line %d: %w", lineNo, err)
			}
		}
		entries = append(entries, Entry{
			Input:      specialkey.Parse(fields[0]),
			Result:     fields[1],
			Pending:    specialkey.Parse(fields[2]),
			Attributes: attrs,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	return New(entries), nil
}

// LoadString is a convenience wrapper around Load for literal table text,
// used extensively by tests.
func LoadString(s string) (*Table, error) {
	return Load(strings.NewReader(s))
}

// DeleteSpecialKey strips sentinel-encoded special keys from s for
// display (spec §4.1's public delete_special_key).
func DeleteSpecialKey(s string) string {
	return specialkey.Delete(s)
}
