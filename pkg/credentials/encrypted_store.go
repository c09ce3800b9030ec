package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize         = 32
	keySize          = 32
	kdfIterations    = 100000
	vaultVersion     = 1
	passphraseFile   = ".passphrase"
	passphraseLength = 32

	// EnvPassphrase overrides the generated passphrase file
	EnvPassphrase = "IMGCRAWLER_PASSPHRASE"
)

// EncryptedFileStore keeps every site in a single AES-GCM sealed JSON
// file. The key comes from PBKDF2 over IMGCRAWLER_PASSPHRASE, or over a
// random passphrase generated once into .passphrase beside the file.
type EncryptedFileStore struct {
	mu         sync.RWMutex
	path       string
	passphrase []byte
}

// vaultFile is the on-disk form. Payload is nonce || ciphertext.
type vaultFile struct {
	Version  int       `json:"version"`
	Salt     []byte    `json:"salt"`
	Payload  []byte    `json:"payload"`
	Modified time.Time `json:"modified"`
}

// NewEncryptedFileStore opens the store at path, creating its directory
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	pass, err := passphrase(filepath.Join(dir, passphraseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: pass}, nil
}

func (e *EncryptedFileStore) Store(site *Site) error {
	if site == nil || site.Host == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(sites map[string]Site) error {
		sites[site.Host] = *site
		return nil
	})
}

func (e *EncryptedFileStore) Retrieve(host string) (*Site, error) {
	if host == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	sites, _, err := e.read()
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	site, ok := sites[host]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &site, nil
}

func (e *EncryptedFileStore) List() ([]*Site, error) {
	e.mu.RLock()
	sites, _, err := e.read()
	e.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make([]*Site, 0, len(sites))
	for _, site := range sites {
		out = append(out, &site)
	}
	return out, nil
}

// Delete removes host. Removing the last host removes the file.
func (e *EncryptedFileStore) Delete(host string) error {
	if host == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(sites map[string]Site) error {
		if _, ok := sites[host]; !ok {
			return ErrCredentialsNotFound
		}
		delete(sites, host)
		return nil
	})
}

func (e *EncryptedFileStore) Exists(host string) bool {
	_, err := e.Retrieve(host)
	return err == nil
}

// update applies fn to the decrypted sites under the write lock and
// persists the result
func (e *EncryptedFileStore) update(fn func(map[string]Site) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sites, salt, err := e.read()
	if err != nil {
		return err
	}
	if err := fn(sites); err != nil {
		return err
	}
	if len(sites) == 0 {
		if err := os.Remove(e.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}
	return e.write(sites, salt)
}

// read returns the stored sites and the salt in use. A missing file is an
// empty store with no salt yet.
func (e *EncryptedFileStore) read() (map[string]Site, []byte, error) {
	raw, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Site{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var vf vaultFile
	if err := json.Unmarshal(raw, &vf); err != nil {
		return nil, nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	aead, err := e.sealer(vf.Salt)
	if err != nil {
		return nil, nil, err
	}
	n := aead.NonceSize()
	if len(vf.Payload) < n {
		return nil, nil, errors.New("credentials file is truncated")
	}
	plain, err := aead.Open(nil, vf.Payload[:n], vf.Payload[n:], nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt credentials (wrong passphrase?): %w", err)
	}

	sites := map[string]Site{}
	if err := json.Unmarshal(plain, &sites); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sites: %w", err)
	}
	return sites, vf.Salt, nil
}

// write seals sites and atomically replaces the file, generating a salt
// on first write
func (e *EncryptedFileStore) write(sites map[string]Site, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plain, err := json.Marshal(sites)
	if err != nil {
		return fmt.Errorf("failed to marshal sites: %w", err)
	}
	aead, err := e.sealer(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	raw, err := json.MarshalIndent(vaultFile{
		Version:  vaultVersion,
		Salt:     salt,
		Payload:  aead.Seal(nonce, nonce, plain, nil),
		Modified: time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

// sealer derives the AES-256 key for salt and wraps it in GCM
func (e *EncryptedFileStore) sealer(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(e.passphrase, salt, kdfIterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// passphrase prefers IMGCRAWLER_PASSPHRASE, then the file at path, and
// otherwise generates one and saves it there
func passphrase(path string) ([]byte, error) {
	if v := os.Getenv(EnvPassphrase); v != "" {
		return []byte(v), nil
	}
	if saved, err := os.ReadFile(path); err == nil && len(saved) > 0 {
		return saved, nil
	}

	b := make([]byte, passphraseLength)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	generated := []byte(base64.URLEncoding.EncodeToString(b))
	if err := os.WriteFile(path, generated, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return generated, nil
}
