package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Keystore errors.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
)

// keystoreVersion is the on-disk format version.
const keystoreVersion = 1

// keystoreFile is the on-disk JSON format for an encrypted wallet.
type keystoreFile struct {
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	Network       string     `json:"network"`
	EncryptedSeed []byte     `json:"encrypted_seed"`
	Keys          []KeyEntry `json:"keys"`
	NextIndex     uint32     `json:"next_index"` // next external index to hand out
}

// KeyEntry records a derived key so it can be listed without the
// password.
type KeyEntry struct {
	Path    string `json:"path"`
	Index   uint32 `json:"index"`
	PubKey  string `json:"pubkey"`  // hex, compressed
	Address string `json:"address"` // base58check
}

// NewKeyEntry describes acct for the keystore.
func NewKeyEntry(acct *Account) KeyEntry {
	return KeyEntry{
		Path:    acct.Path,
		Index:   acct.Index,
		PubKey:  hex.EncodeToString(acct.PubKey),
		Address: acct.Address.String(),
	}
}

// Keystore manages encrypted seeds on disk, one file per wallet.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore that reads/writes to the given directory.
// The directory is created if it doesn't exist.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

func (ks *Keystore) walletPath(name string) string {
	return filepath.Join(ks.path, name+".wallet")
}

// Create writes a new wallet holding seed encrypted under password.
func (ks *Keystore) Create(name, network string, seed, password []byte, params EncryptionParams) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid wallet name %q", name)
	}
	path := ks.walletPath(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}
	return ks.writeFile(path, &keystoreFile{
		Version:       keystoreVersion,
		CreatedAt:     time.Now().UTC(),
		Network:       network,
		EncryptedSeed: encrypted,
		Keys:          []KeyEntry{},
	})
}

// Load decrypts a wallet and returns its seed.
func (ks *Keystore) Load(name string, password []byte) ([]byte, error) {
	kf, err := ks.readFile(name)
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet %q: %w", name, err)
	}
	return seed, nil
}

// AddKey records a derived key and advances the next index past it.
// Recording the same path twice is a no-op.
func (ks *Keystore) AddKey(name string, entry KeyEntry) error {
	kf, err := ks.readFile(name)
	if err != nil {
		return err
	}
	for _, existing := range kf.Keys {
		if existing.Path == entry.Path {
			if existing.Address == entry.Address {
				return nil
			}
			return fmt.Errorf("path %s already recorded with address %s", entry.Path, existing.Address)
		}
	}
	kf.Keys = append(kf.Keys, entry)
	if entry.Index >= kf.NextIndex {
		kf.NextIndex = entry.Index + 1
	}
	return ks.writeFile(ks.walletPath(name), kf)
}

// Keys returns the recorded keys of a wallet.
func (ks *Keystore) Keys(name string) ([]KeyEntry, error) {
	kf, err := ks.readFile(name)
	if err != nil {
		return nil, err
	}
	return kf.Keys, nil
}

// NextIndex returns the next unused external index of a wallet.
func (ks *Keystore) NextIndex(name string) (uint32, error) {
	kf, err := ks.readFile(name)
	if err != nil {
		return 0, err
	}
	return kf.NextIndex, nil
}

// Network returns the network a wallet was created for.
func (ks *Keystore) Network(name string) (string, error) {
	kf, err := ks.readFile(name)
	if err != nil {
		return "", err
	}
	return kf.Network, nil
}

// List returns the names of all wallet files in the keystore.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".wallet"); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	err := os.Remove(ks.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	return err
}

func (ks *Keystore) writeFile(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func (ks *Keystore) readFile(name string) (*keystoreFile, error) {
	data, err := os.ReadFile(ks.walletPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, nil
}
