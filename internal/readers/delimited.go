package readers

import (
	"encoding/csv"
	"os"
	"strings"
)

// minDataFields is the field count that marks the start of tabular data.
// Statement exports open with free-form preamble lines; the first line
// that splits into at least this many fields is taken as the table start.
const minDataFields = 5

// readDelimited loads a delimited text export. The delimiter is probed per
// line, tab before comma, because banks ship both under the .csv and .txt
// extensions.
func readDelimited(path string) ([][]string, error) {
	return readDelimitedFile(path, 0)
}

// readTSV loads a tab-separated export.
func readTSV(path string) ([][]string, error) {
	return readDelimitedFile(path, '\t')
}

// readDelimitedFile reads the file, skips the preamble, and parses the
// rest with the detected (or forced) delimiter.
func readDelimitedFile(path string, delimiter rune) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lines := splitLines(string(data))
	start, detected := findDataStart(lines)
	if delimiter == 0 {
		delimiter = detected
	}
	body := strings.Join(lines[start:], "\n")
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(body))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	return reader.ReadAll()
}

// findDataStart locates the first line with enough delimited fields to be
// tabular data and reports which delimiter produced them.
func findDataStart(lines []string) (int, rune) {
	for i, line := range lines {
		if countFields(line, '\t') >= minDataFields {
			return i, '\t'
		}
		if countFields(line, ',') >= minDataFields {
			return i, ','
		}
	}
	return 0, ','
}

func countFields(line string, delimiter rune) int {
	if strings.TrimSpace(line) == "" {
		return 0
	}
	return len(strings.Split(line, string(delimiter)))
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
