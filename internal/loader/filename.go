package loader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
)

// Statement files follow <owner>_<bank>_<year>.<ext> for one financial
// year, or <owner>_<bank>_<fromyear>_<toyear>.<ext> for a span. The year
// is the calendar year the financial year starts in.
var (
	singleYearNameRe = regexp.MustCompile(`^([^_]+)_([^_]+)_(\d{4})\.(\w+)$`)
	multiYearNameRe  = regexp.MustCompile(`^([^_]+)_([^_]+)_(\d{4})_(\d{4})\.(\w+)$`)
)

// StatementFile is a statement file whose name has been parsed into its
// owner, bank and financial year coverage.
type StatementFile struct {
	Path  string
	Name  string
	Owner string
	Bank  models.Bank
	// From and To bound the financial years the file covers, inclusive.
	// Equal for single-year files.
	From models.FinancialYear
	To   models.FinancialYear
	Ext  string
}

// MultiYear reports whether the file spans more than one financial year.
func (f *StatementFile) MultiYear() bool {
	return f.From != f.To
}

// Years returns every financial year the file covers, ascending.
func (f *StatementFile) Years() []models.FinancialYear {
	var years []models.FinancialYear
	for fy := f.From; fy.Compare(f.To) <= 0; fy = fy.Next() {
		years = append(years, fy)
	}
	return years
}

// ParseStatementFileName parses a statement file path into its parts. The
// bank token must name a supported bank.
func ParseStatementFileName(path string) (*StatementFile, error) {
	name := filepath.Base(path)

	var owner, bankToken, ext string
	var fromYear, toYear int

	if m := multiYearNameRe.FindStringSubmatch(name); m != nil {
		owner, bankToken, ext = m[1], m[2], m[5]
		fromYear, _ = strconv.Atoi(m[3])
		toYear, _ = strconv.Atoi(m[4])
	} else if m := singleYearNameRe.FindStringSubmatch(name); m != nil {
		owner, bankToken, ext = m[1], m[2], m[4]
		fromYear, _ = strconv.Atoi(m[3])
		toYear = fromYear
	} else {
		return nil, apperrors.ConfigurationError(apperrors.CodeFileNaming, "statements", name, nil)
	}

	if toYear < fromYear {
		return nil, apperrors.ConfigurationError(apperrors.CodeFileNaming, "statements", name, nil).
			WithContext("reason", "year range is reversed")
	}

	bank, err := models.ParseBank(bankToken)
	if err != nil {
		return nil, apperrors.UnsupportedBank(bankToken).WithContext("file", name)
	}

	return &StatementFile{
		Path:  path,
		Name:  name,
		Owner: strings.ToUpper(owner),
		Bank:  bank,
		From:  models.NewFinancialYear(fromYear),
		To:    models.NewFinancialYear(toYear),
		Ext:   strings.ToLower(ext),
	}, nil
}

// CheckContinuity verifies that, per owner and bank, the files cover a
// gap-free run of financial years. The returned error lists the expected
// names of the missing files.
func CheckContinuity(files []*StatementFile) error {
	type group struct {
		owner string
		bank  models.Bank
		ext   string
		years map[int]bool
	}
	groups := make(map[string]*group)
	var order []string

	for _, f := range files {
		key := f.Owner + "\x1f" + string(f.Bank)
		g, ok := groups[key]
		if !ok {
			g = &group{owner: f.Owner, bank: f.Bank, ext: f.Ext, years: make(map[int]bool)}
			groups[key] = g
			order = append(order, key)
		}
		for _, fy := range f.Years() {
			g.years[fy.StartYear()] = true
		}
	}

	var missing []string
	for _, key := range order {
		g := groups[key]
		min, max := 0, 0
		for y := range g.years {
			if min == 0 || y < min {
				min = y
			}
			if y > max {
				max = y
			}
		}
		for y := min; y <= max; y++ {
			if !g.years[y] {
				missing = append(missing,
					fmt.Sprintf("%s_%s_%d.%s", g.owner, g.bank.ShortCode(), y, g.ext))
			}
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.ConfigurationError(apperrors.CodeYearGap, "statements", missing, nil).
			WithContext("missing_files", missing)
	}
	return nil
}
