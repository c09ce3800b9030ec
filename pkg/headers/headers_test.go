package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeCallerWins(t *testing.T) {
	merged := Merge(Set{"accept": "a", "user-agent": "default"}, map[string]string{
		"User-Agent": "custom",
		"Cookie":     "sid=1",
	})

	assert.Equal(t, "custom", merged["user-agent"])
	assert.Equal(t, "sid=1", merged["cookie"])
	assert.Equal(t, "a", merged["accept"])
	assert.Len(t, merged, 3)
}

func TestHTMLProfile(t *testing.T) {
	h := HTML(nil)

	assert.Equal(t, UserAgent, h.Get("User-Agent"))
	assert.Equal(t, AcceptHTML, h.Get("accept"))
	assert.Equal(t, AcceptLanguage, h.Get("accept-language"))
}

func TestImageProfile(t *testing.T) {
	tests := []struct {
		name     string
		imageURL string
		referer  string
		extra    map[string]string
		expected string
	}{
		{"job referer", "https://cdn.example.com/a.jpg", "https://example.com/gallery", nil, "https://example.com/gallery"},
		{"origin fallback", "https://cdn.example.com/a.jpg", "", nil, "https://cdn.example.com"},
		{"caller override", "https://cdn.example.com/a.jpg", "https://example.com/", map[string]string{"Referer": "https://other.test/"}, "https://other.test/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Image(tt.imageURL, tt.referer, tt.extra)
			assert.Equal(t, tt.expected, h.Get("referer"))
			assert.Equal(t, AcceptImage, h.Get("accept"))
			assert.Equal(t, "image", h.Get("sec-fetch-dest"))
			assert.Equal(t, "no-cors", h.Get("sec-fetch-mode"))
			assert.Equal(t, "same-origin", h.Get("sec-fetch-site"))
		})
	}
}

func TestOrigin(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8080", Origin("http://127.0.0.1:8080/p?q=1"))
	assert.Equal(t, "", Origin("not a url"))
	assert.Equal(t, "", Origin("/relative/path"))

	tests := []struct {
		url  string
		want string
	}{
		{"https://Example.COM/gallery", "https://example.com"},
		{"https://example.com:443/p/2", "https://example.com"},
		{"HTTP://example.com:80", "http://example.com"},
		{"http://example.com:443/", "http://example.com:443"},
		{"https://example.com:8443/x", "https://example.com:8443"},
		{"http://[::1]:80/", "http://[::1]"},
		{"http://[::1]:8080/", "http://[::1]:8080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Origin(tt.url), tt.url)
	}
	assert.Equal(t, Origin("https://example.com/"), Origin("https://EXAMPLE.com:443/page/2"))
}
