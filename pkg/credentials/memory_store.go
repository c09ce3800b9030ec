package credentials

import "sync"

// MemoryStore is an in-process Store, used when nothing may touch the disk
// or keychain
type MemoryStore struct {
	mu    sync.RWMutex
	sites map[string]Site

	// StoreError, when set, is returned by Store
	StoreError error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sites: make(map[string]Site)}
}

// Store saves a copy of site
func (m *MemoryStore) Store(site *Site) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if site == nil || site.Host == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[site.Host] = *site
	return nil
}

// Retrieve returns a copy of the site for host
func (m *MemoryStore) Retrieve(host string) (*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	site, ok := m.sites[host]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &site, nil
}

// List returns copies of all sites
func (m *MemoryStore) List() ([]*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Site, 0, len(m.sites))
	for _, site := range m.sites {
		s := site
		out = append(out, &s)
	}
	return out, nil
}

// Delete removes host
func (m *MemoryStore) Delete(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sites[host]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.sites, host)
	return nil
}

// Exists reports whether host is stored
func (m *MemoryStore) Exists(host string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sites[host]
	return ok
}

// Len returns the number of stored sites
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sites)
}
