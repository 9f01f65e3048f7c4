// Command generate produces sample bank statement files for manual testing
// of the consolidation pipeline. It writes one statement file per owner,
// bank and financial year, named the way the loader expects, plus a
// matching accounts.yaml.
//
// Usage:
//
//	go run ./testdata/generators -output-dir ../sample -owners DE,AK -years 2020,2021
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var bankNames = []string{"MAHARASHTRA", "CANARA", "ICICI", "SBI"}

func main() {
	var (
		outputDir = flag.String("output-dir", "../generated", "Output directory for generated files")
		owners    = flag.String("owners", "DE", "Comma-separated owner initials")
		years     = flag.String("years", "2021", "Comma-separated financial year start years")
		banks     = flag.String("banks", strings.Join(bankNames, ","), "Comma-separated banks to generate")
		rows      = flag.Int("rows", 40, "Transactions per statement")
		seed      = flag.Int64("seed", 42, "Random seed for reproducible generation")
		overlap   = flag.Bool("overlap", false, "Repeat the last rows of each year at the start of the next, to exercise deduplication")
	)
	flag.Parse()

	yearList, err := parseYears(*years)
	if err != nil {
		log.Fatalf("invalid -years: %v", err)
	}
	bankList, err := parseBanks(*banks)
	if err != nil {
		log.Fatalf("invalid -banks: %v", err)
	}
	ownerList := splitList(*owners)
	if len(ownerList) == 0 {
		log.Fatal("at least one owner is required")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	var files []string

	for _, owner := range ownerList {
		for _, bank := range bankList {
			// a stable opening balance per account keeps the series
			// continuous across years
			balance := newBalance(rng)
			var carried []transaction

			for _, year := range yearList {
				txns := generateTransactions(rng, year, *rows, &balance)
				if *overlap && len(carried) > 0 {
					txns = append(carried, txns...)
				}
				if *overlap {
					carried = tail(txns, 3)
				}

				name := fmt.Sprintf("%s_%s_%d%s", owner, bank, year, fileExtension(bank))
				path := filepath.Join(*outputDir, name)
				if err := writeStatement(path, bank, txns); err != nil {
					log.Fatalf("failed to write %s: %v", path, err)
				}
				files = append(files, name)
			}
		}
	}

	accountsPath := filepath.Join(*outputDir, "accounts.yaml")
	if err := writeAccounts(accountsPath, ownerList, bankList); err != nil {
		log.Fatalf("failed to write accounts file: %v", err)
	}

	fmt.Printf("Generated %d statement files in %s:\n", len(files), *outputDir)
	for _, name := range files {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("  accounts.yaml\n")
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range splitList(s) {
		year, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad year '%s': %w", part, err)
		}
		if year < 1990 || year > time.Now().Year() {
			return nil, fmt.Errorf("year %d out of range", year)
		}
		years = append(years, year)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("at least one year is required")
	}
	return years, nil
}

func parseBanks(s string) ([]string, error) {
	known := map[string]bool{}
	for _, b := range bankNames {
		known[b] = true
	}
	var banks []string
	for _, part := range splitList(s) {
		bank := strings.ToUpper(part)
		if !known[bank] {
			return nil, fmt.Errorf("unknown bank '%s', supported: %s", part, strings.Join(bankNames, ", "))
		}
		banks = append(banks, bank)
	}
	if len(banks) == 0 {
		return nil, fmt.Errorf("at least one bank is required")
	}
	return banks, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func tail(txns []transaction, n int) []transaction {
	if len(txns) < n {
		n = len(txns)
	}
	return append([]transaction(nil), txns[len(txns)-n:]...)
}

func writeAccounts(path string, owners, banks []string) error {
	var b strings.Builder
	b.WriteString("accounts:\n")
	for _, owner := range owners {
		for _, bank := range banks {
			fmt.Fprintf(&b, "  - owner: %s\n", owner)
			fmt.Fprintf(&b, "    id: %s-%s\n", shortCode(bank), owner)
			fmt.Fprintf(&b, "    bank: %s\n", bank)
			fmt.Fprintf(&b, "    name: %s savings account\n", bank)
		}
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func shortCode(bank string) string {
	switch bank {
	case "MAHARASHTRA":
		return "BOM"
	case "CANARA":
		return "CB"
	default:
		return bank
	}
}
