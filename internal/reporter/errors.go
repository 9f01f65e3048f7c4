package reporter

import (
	"fmt"
	"io"
	"sort"

	apperrors "golang-consolidation-service/pkg/errors"
)

// printRowErrors renders the rows that failed parsing or normalization,
// grouped by source file so a user can fix one export at a time.
func printRowErrors(errs []*apperrors.RowError, writer io.Writer) {
	fmt.Fprintln(writer, "ROW ERRORS")
	fmt.Fprintln(writer, "==========")

	files, groups := apperrors.GroupRowErrorsByFile(errs)
	for _, file := range files {
		group := groups[file]
		fmt.Fprintf(writer, "%s (%d rows)\n", file, len(group))
		for _, e := range group {
			if e.Field != "" {
				fmt.Fprintf(writer, "  row %d  %-12s %s\n", e.Row, e.Field, e.Message)
			} else {
				fmt.Fprintf(writer, "  row %d  %s\n", e.Row, e.Message)
			}
		}
	}
	fmt.Fprintln(writer)
}

// WriteRowErrorReport renders only the row error section, for callers that
// export records elsewhere and want the failures on a side channel.
func WriteRowErrorReport(errs []*apperrors.RowError, writer io.Writer) error {
	if len(errs) == 0 {
		_, err := fmt.Fprintln(writer, "No row errors.")
		return err
	}
	printRowErrors(errs, writer)

	summary := apperrors.NewErrorSummary(rowErrorBases(errs))
	fmt.Fprintf(writer, "%d rows failed", summary.Total)
	codes := make([]string, 0, len(summary.ByCode))
	for code := range summary.ByCode {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(writer, "  %s=%d", code, summary.ByCode[apperrors.ErrorCode(code)])
	}
	_, err := fmt.Fprintln(writer)
	return err
}

func rowErrorBases(errs []*apperrors.RowError) []*apperrors.ConsolidatorError {
	base := make([]*apperrors.ConsolidatorError, len(errs))
	for i, e := range errs {
		base[i] = e.ConsolidatorError
	}
	return base
}
