// Package accounts holds the account registry: the caller-maintained list
// of known owner and account pairs. The merge engine validates its inputs
// against it when configured to.
package accounts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"golang-consolidation-service/internal/models"
	apperrors "golang-consolidation-service/pkg/errors"
)

// Account is one registered bank account.
type Account struct {
	// Owner is the owner's short identifier, usually initials.
	Owner string `yaml:"owner" json:"owner"`
	// ID is the account identifier used in canonical records.
	ID   string      `yaml:"id" json:"id"`
	Bank models.Bank `yaml:"bank" json:"bank"`
	// Name is the owner's full name, used in reports.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Registry is the set of known accounts.
type Registry struct {
	accounts []Account
	byKey    map[string]Account
	byBank   map[string]Account
}

type registryFile struct {
	Accounts []Account `yaml:"accounts"`
}

// NewRegistry builds a registry from a list of accounts.
func NewRegistry(accounts []Account) (*Registry, error) {
	r := &Registry{
		byKey:  make(map[string]Account, len(accounts)),
		byBank: make(map[string]Account, len(accounts)),
	}
	for _, a := range accounts {
		if strings.TrimSpace(a.Owner) == "" || strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("registry account needs both owner and id: %+v", a)
		}
		key := accountKey(a.Owner, a.ID)
		if _, dup := r.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate registry account %s/%s", a.Owner, a.ID)
		}
		r.byKey[key] = a
		if a.Bank != "" {
			r.byBank[accountKey(a.Owner, string(a.Bank))] = a
		}
		r.accounts = append(r.accounts, a)
	}
	return r, nil
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeFileUnreadable, path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "accounts", path, err)
	}

	r, err := NewRegistry(file.Accounts)
	if err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "accounts", path, err)
	}
	return r, nil
}

// Accounts returns the registered accounts in file order.
func (r *Registry) Accounts() []Account {
	return append([]Account(nil), r.accounts...)
}

// Len returns the number of registered accounts.
func (r *Registry) Len() int {
	return len(r.accounts)
}

// Contains reports whether the owner and account pair is registered.
func (r *Registry) Contains(owner, accountID string) bool {
	_, ok := r.byKey[accountKey(owner, accountID)]
	return ok
}

// ForBank finds the account an owner holds at a bank. Statement files name
// the bank, not the account, so loading resolves accounts this way.
func (r *Registry) ForBank(owner string, bank models.Bank) (Account, bool) {
	a, ok := r.byBank[accountKey(owner, string(bank))]
	return a, ok
}

// OwnerName returns the full name registered for an owner identifier, or
// the identifier itself when no account names one.
func (r *Registry) OwnerName(owner string) string {
	for _, a := range r.accounts {
		if strings.EqualFold(a.Owner, owner) && a.Name != "" {
			return a.Name
		}
	}
	return owner
}

func accountKey(owner, id string) string {
	return strings.ToUpper(strings.TrimSpace(owner)) + "\x1f" + strings.ToUpper(strings.TrimSpace(id))
}
