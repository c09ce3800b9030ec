package credentials

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore. They apply to every host.
const (
	EnvCookie        = "IMGCRAWLER_COOKIE"
	EnvAuthorization = "IMGCRAWLER_AUTHORIZATION"
	EnvUserAgent     = "IMGCRAWLER_USER_AGENT"
)

// EnvironmentStore is a read-only store backed by environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(site *Site) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment values under the requested host
func (e *EnvironmentStore) Retrieve(host string) (*Site, error) {
	site := &Site{
		Host:          host,
		Cookie:        os.Getenv(EnvCookie),
		Authorization: os.Getenv(EnvAuthorization),
		UserAgent:     os.Getenv(EnvUserAgent),
		LastModified:  time.Now(),
	}
	if site.Cookie == "" && site.Authorization == "" && site.UserAgent == "" {
		return nil, ErrCredentialsNotFound
	}
	if site.Host == "" {
		site.Host = "*"
	}
	return site, nil
}

// List returns the environment values as a single "*" entry when set
func (e *EnvironmentStore) List() ([]*Site, error) {
	site, err := e.Retrieve("")
	if err != nil {
		return []*Site{}, nil
	}
	return []*Site{site}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(host string) error {
	return ErrStoreUnavailable
}

// Exists reports whether any of the variables is set
func (e *EnvironmentStore) Exists(host string) bool {
	_, err := e.Retrieve(host)
	return err == nil
}
