// Package readers loads raw statement rows from the file formats banks
// export: delimited text, XLSX workbooks and HTML statements. Readers are
// format-only; they know nothing about banks or columns.
package readers

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "golang-consolidation-service/pkg/errors"
)

// readerFunc loads every row of one file.
type readerFunc func(path string) ([][]string, error)

var readersByExtension = map[string]readerFunc{
	".csv":  readDelimited,
	".txt":  readDelimited,
	".tsv":  readTSV,
	".xlsx": readXLSX,
	".htm":  readHTML,
	".html": readHTML,
}

// SupportedExtensions returns the recognized statement file extensions in
// sorted order, dots included.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(readersByExtension))
	for ext := range readersByExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupported reports whether the path has a recognized extension.
func IsSupported(path string) bool {
	_, ok := readersByExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadStatement loads every row of a statement file, picking the reader by
// file extension.
func ReadStatement(path string) ([][]string, error) {
	read, ok := readersByExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, apperrors.FileError(apperrors.CodeUnrecognizedFormat, path, nil)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, apperrors.FileError(apperrors.CodeFilePermission, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeFileUnreadable, path, err)
	}

	rows, err := read(path)
	if err != nil {
		if _, ok := apperrors.AsConsolidatorError(err); ok {
			return nil, err
		}
		return nil, apperrors.FileError(apperrors.CodeFileUnreadable, path, err)
	}
	return rows, nil
}
