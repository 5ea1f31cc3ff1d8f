// Package nameservice reads a folder of key files and creates a name
// service lookup for the wallet addresses they own.
package nameservice

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
)

// keyExt is the extension of the private key files in the folder.
const keyExt = ".ecdsa"

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[database.AccountID]string
	names    map[string]database.AccountID
}

// New constructs a name service with the accounts found in the folder. A
// missing folder produces an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[database.AccountID]string),
		names:    make(map[string]database.AccountID),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && fileName == root {
				return filepath.SkipDir
			}
			return errors.Wrap(err, "walkdir failure")
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExt {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return errors.Wrapf(err, "loading key %s", fileName)
		}

		name := strings.TrimSuffix(filepath.Base(fileName), keyExt)
		accountID := database.PublicKeyToAccountID(privateKey.PublicKey)

		ns.accounts[accountID] = name
		ns.names[name] = accountID

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, errors.Wrap(err, "walking directory")
	}

	return &ns, nil
}

// Lookup returns the name for the specified account.
func (ns *NameService) Lookup(accountID database.AccountID) string {
	name, exists := ns.accounts[accountID]
	if !exists {
		return string(accountID)
	}
	return name
}

// AccountID returns the account for the specified name.
func (ns *NameService) AccountID(name string) (database.AccountID, bool) {
	accountID, exists := ns.names[name]
	return accountID, exists
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[database.AccountID]string {
	cpy := make(map[database.AccountID]string, len(ns.accounts))
	for account, name := range ns.accounts {
		cpy[account] = name
	}
	return cpy
}

// Names returns the known names sorted.
func (ns *NameService) Names() []string {
	names := make([]string, 0, len(ns.names))
	for name := range ns.names {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
