package cartera

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// WalletStore is the capability interface for cold-wallet persistence. The
// engine only ever needs get/put/list semantics, so any key-value file format
// can back it.
type WalletStore interface {
	Put(asset string, quantity Quantity) error
	Delete(asset string) error
	List() (map[string]Quantity, error)
}

// fileWallet is a WalletStore backed by a single JSON file mapping asset
// symbol to quantity.
type fileWallet struct {
	path string
}

// OpenColdWallet returns the file-backed cold wallet store at path. The file
// is created on first Put.
func OpenColdWallet(path string) WalletStore {
	return &fileWallet{path: path}
}

func (w *fileWallet) load() (map[string]Quantity, error) {
	content, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Quantity{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read cold wallet %q: %w", w.path, err)
	}
	var raw map[string]Quantity
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("could not decode cold wallet %q: %w", w.path, err)
	}
	return raw, nil
}

func (w *fileWallet) save(wallet map[string]Quantity) error {
	content, err := json.MarshalIndent(wallet, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.path, content, 0644); err != nil {
		return fmt.Errorf("could not write cold wallet %q: %w", w.path, err)
	}
	return nil
}

func (w *fileWallet) Put(asset string, quantity Quantity) error {
	wallet, err := w.load()
	if err != nil {
		return err
	}
	wallet[walletKey(asset)] = quantity
	return w.save(wallet)
}

func (w *fileWallet) Delete(asset string) error {
	wallet, err := w.load()
	if err != nil {
		return err
	}
	key := walletKey(asset)
	if _, ok := wallet[key]; !ok {
		return fmt.Errorf("%s not found in cold wallet", symbol(asset))
	}
	delete(wallet, key)
	return w.save(wallet)
}

func (w *fileWallet) List() (map[string]Quantity, error) {
	wallet, err := w.load()
	if err != nil {
		return nil, err
	}
	holdings := make(map[string]Quantity, len(wallet))
	for key, q := range wallet {
		holdings[symbol(key)] = q
	}
	return holdings, nil
}

// walletKey keeps the on-disk keys lower-case, compatible with hand-edited
// wallet files.
func walletKey(asset string) string { return strings.ToLower(strings.TrimSpace(asset)) }
