// Package headers holds the request header profiles used for pages and images.
package headers

import (
	"net"
	"net/url"
	"strings"
)

// UserAgent is sent when the caller does not supply one
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122 Safari/537.36 image-crawler"

const (
	// AcceptLanguage is shared by both profiles and the headless browser
	AcceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
	// AcceptHTML is the Accept value for page requests
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	// AcceptImage is the Accept value for image requests
	AcceptImage = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
)

// Set is a header map keyed by lowercase name
type Set map[string]string

// Merge returns base overlaid with extra. Keys are lowercased and extra wins.
func Merge(base Set, extra map[string]string) Set {
	out := make(Set, len(base)+len(extra))
	for k, v := range base {
		out[strings.ToLower(k)] = v
	}
	for k, v := range extra {
		out[strings.ToLower(k)] = v
	}
	return out
}

// Get looks up a header case-insensitively
func (s Set) Get(name string) string {
	return s[strings.ToLower(name)]
}

// HTML returns the page profile merged with the caller's headers
func HTML(extra map[string]string) Set {
	return Merge(Set{
		"user-agent":      UserAgent,
		"accept":          AcceptHTML,
		"accept-language": AcceptLanguage,
	}, extra)
}

// Image returns the image profile for imageURL merged with the caller's headers.
// The referer is the job's start URL, falling back to the image origin.
func Image(imageURL, referer string, extra map[string]string) Set {
	if referer == "" {
		referer = Origin(imageURL)
	}

	base := Set{
		"user-agent":      UserAgent,
		"accept":          AcceptImage,
		"accept-language": AcceptLanguage,
		"sec-fetch-dest":  "image",
		"sec-fetch-mode":  "no-cors",
		"sec-fetch-site":  "same-origin",
	}
	if referer != "" {
		base["referer"] = referer
	}
	return Merge(base, extra)
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// Origin returns the serialized origin of rawURL: lowercase scheme and
// host, with the scheme's default port dropped. It returns "" when rawURL
// has no scheme or host.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || port == defaultPorts[scheme] {
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		return scheme + "://" + host
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}
