package model

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadLabels reads the label resource at path. See ParseLabels for the format.
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLabels, err)
	}
	defer f.Close()

	return ParseLabels(f)
}

// ParseLabels reads one class per line in the form "<id> <label>". The
// second whitespace separated token is the label; the id is discarded and
// line order defines the output index. Blank lines are skipped.
func ParseLabels(r io.Reader) ([]string, error) {
	var labels []string

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected \"<id> <label>\", got %q", ErrInvalidLabels, line, text)
		}
		labels = append(labels, fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLabels, err)
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels found", ErrInvalidLabels)
	}

	return labels, nil
}
