package credentials

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// Site holds the request headers stored for one host
type Site struct {
	Host          string    `json:"host"`
	Cookie        string    `json:"cookie,omitempty"`
	Authorization string    `json:"authorization,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	LastModified  time.Time `json:"last_modified"`
}

// Headers returns the site's non-empty values as request headers
func (s *Site) Headers() map[string]string {
	h := make(map[string]string, 3)
	if s.Cookie != "" {
		h["Cookie"] = s.Cookie
	}
	if s.Authorization != "" {
		h["Authorization"] = s.Authorization
	}
	if s.UserAgent != "" {
		h["User-Agent"] = s.UserAgent
	}
	return h
}

// Store persists site credentials
type Store interface {
	// Store saves credentials for site.Host
	Store(site *Site) error

	// Retrieve gets credentials for a host
	Retrieve(host string) (*Site, error)

	// List returns all stored sites
	List() ([]*Site, error)

	// Delete removes credentials for a host
	Delete(host string) error

	// Exists checks if credentials exist for a host
	Exists(host string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []Store
}

// NewManager tries the system keychain, then an encrypted file in the
// config directory, then the environment
func NewManager() (*Manager, error) {
	var stores []Store

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit stores, tried in order
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Store saves site using the first store that accepts it
func (m *Manager) Store(site *Site) error {
	if site == nil {
		return ErrInvalidCredentials
	}
	host, err := NormalizeHost(site.Host)
	if err != nil {
		return err
	}
	if site.Cookie == "" && site.Authorization == "" && site.UserAgent == "" {
		return errors.New("at least one of cookie, authorization or user agent is required")
	}

	site.Host = host
	site.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(site)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials for host from the first store that has them
func (m *Manager) Retrieve(host string) (*Site, error) {
	host, err := NormalizeHost(host)
	if err != nil {
		return nil, err
	}

	for _, store := range m.stores {
		if site, err := store.Retrieve(host); err == nil && site != nil {
			return site, nil
		}
	}
	return nil, fmt.Errorf("%w for host: %s", ErrCredentialsNotFound, host)
}

// HeadersFor returns the stored headers for the host of rawURL, or an empty
// map when nothing is stored
func (m *Manager) HeadersFor(rawURL string) map[string]string {
	site, err := m.Retrieve(rawURL)
	if err != nil {
		return map[string]string{}
	}
	return site.Headers()
}

// List returns every stored site, newest version per host, sorted by host
func (m *Manager) List() ([]*Site, error) {
	byHost := make(map[string]*Site)

	for _, store := range m.stores {
		sites, err := store.List()
		if err != nil {
			continue
		}
		for _, site := range sites {
			if existing, ok := byHost[site.Host]; !ok || site.LastModified.After(existing.LastModified) {
				byHost[site.Host] = site
			}
		}
	}

	result := make([]*Site, 0, len(byHost))
	for _, site := range byHost {
		result = append(result, site)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Host < result[j].Host })
	return result, nil
}

// Delete removes credentials for host from all stores
func (m *Manager) Delete(host string) error {
	host, err := NormalizeHost(host)
	if err != nil {
		return err
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(host); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w for host: %s", ErrCredentialsNotFound, host)
	}
	return nil
}

// NormalizeHost reduces a URL or bare host to a lowercase host[:port]
func NormalizeHost(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidCredentials
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: invalid host %q", ErrInvalidCredentials, s)
	}
	return strings.ToLower(u.Host), nil
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "imgcrawler")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "imgcrawler")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "imgcrawler")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "imgcrawler")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Sanitize returns a copy of site with secret values masked
func Sanitize(site *Site) *Site {
	if site == nil {
		return nil
	}

	return &Site{
		Host:          site.Host,
		Cookie:        maskString(site.Cookie),
		Authorization: maskString(site.Authorization),
		UserAgent:     site.UserAgent,
		LastModified:  site.LastModified,
	}
}

// maskString keeps the first and last 4 characters of s
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
