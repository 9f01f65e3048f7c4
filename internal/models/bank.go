package models

import (
	"fmt"
	"strings"
)

// Bank identifies one of the supported statement formats.
type Bank string

const (
	// BankMaharashtra is Bank of Maharashtra.
	BankMaharashtra Bank = "MAHARASHTRA"
	// BankCanara is Canara Bank.
	BankCanara Bank = "CANARA"
	// BankICICI is ICICI Bank.
	BankICICI Bank = "ICICI"
	// BankSBI is State Bank of India.
	BankSBI Bank = "SBI"

	// BankAuto requests header-signature detection instead of a fixed format.
	BankAuto Bank = "AUTO"
)

// SupportedBanks returns every bank that has a registered format descriptor,
// in a stable order.
func SupportedBanks() []Bank {
	return []Bank{BankMaharashtra, BankCanara, BankICICI, BankSBI}
}

// String returns the string representation of the Bank
func (b Bank) String() string {
	return string(b)
}

// IsValid reports whether the bank is one of the supported formats.
// BankAuto is a detection request, not a format, and is not valid here.
func (b Bank) IsValid() bool {
	switch b {
	case BankMaharashtra, BankCanara, BankICICI, BankSBI:
		return true
	}
	return false
}

// IsAuto reports whether the identifier requests format detection.
func (b Bank) IsAuto() bool {
	return b == BankAuto
}

// ShortCode returns the abbreviation used in statement file names.
func (b Bank) ShortCode() string {
	switch b {
	case BankMaharashtra:
		return "BOM"
	case BankCanara:
		return "CB"
	case BankICICI:
		return "ICICI"
	case BankSBI:
		return "SBI"
	}
	return string(b)
}

// DisplayName returns the full bank name used in the consolidated output.
func (b Bank) DisplayName() string {
	switch b {
	case BankMaharashtra:
		return "Bank of Maharashtra"
	case BankCanara:
		return "Canara Bank"
	case BankICICI:
		return "ICICI Bank"
	case BankSBI:
		return "State Bank of India"
	}
	return string(b)
}

// ParseBank maps an identifier to a Bank. It accepts the enum name, the
// file-name short code and the display name, case-insensitively.
func ParseBank(s string) (Bank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MAHARASHTRA", "BOM", "BANK OF MAHARASHTRA":
		return BankMaharashtra, nil
	case "CANARA", "CB", "CANARA BANK":
		return BankCanara, nil
	case "ICICI", "ICICI BANK":
		return BankICICI, nil
	case "SBI", "STATE BANK OF INDIA":
		return BankSBI, nil
	case "AUTO":
		return BankAuto, nil
	}
	return "", fmt.Errorf("unknown bank identifier '%s'", s)
}
