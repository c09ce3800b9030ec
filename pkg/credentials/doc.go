// Package credentials stores per-site request headers (Cookie,
// Authorization, User-Agent) for crawls of sites that require a login.
//
// Stores are tried in order: the system keychain through go-keyring, an
// AES-GCM encrypted file under the user config directory, and finally the
// IMGCRAWLER_COOKIE / IMGCRAWLER_AUTHORIZATION / IMGCRAWLER_USER_AGENT
// environment variables, which apply to every host.
//
//	mgr, err := credentials.NewManager()
//	headers := mgr.HeadersFor("https://example.com/gallery")
package credentials
