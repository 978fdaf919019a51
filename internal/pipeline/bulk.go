package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrBulkSize is returned when a bulk request holds no URLs or too many.
var ErrBulkSize = errors.New("invalid number of URLs")

// SplitURLList splits a comma-delimited list into trimmed, non-empty
// entries. The result must hold between 1 and limit entries.
func SplitURLList(list string, limit int) ([]string, error) {
	urls := make([]string, 0)
	for part := range strings.SplitSeq(list, ",") {
		if u := strings.TrimSpace(part); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 || len(urls) > limit {
		return nil, fmt.Errorf("%w: provide 1-%d URLs separated by commas", ErrBulkSize, limit)
	}
	return urls, nil
}

// ReadURLList reads one URL per line from r.
// Blank lines and lines starting with '#' are skipped.
func ReadURLList(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}
