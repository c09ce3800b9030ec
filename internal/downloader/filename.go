package downloader

import (
	"net/url"
	"path"
	"strings"
)

// placeholderName is used when a URL has no usable path segment
const placeholderName = "image"

// Filename derives a file name from the last path segment of rawURL and, when
// that has no extension, appends one inferred from contentType.
func Filename(rawURL, contentType string) string {
	name := placeholderName
	if u, err := url.Parse(rawURL); err == nil {
		switch base := path.Base(u.EscapedPath()); base {
		case "", "/", ".", "..":
		default:
			name = base
		}
	}

	if path.Ext(name) == "" {
		if ext := ExtFromContentType(contentType); ext != "" {
			name += "." + ext
		}
	}
	return name
}

// ExtFromContentType maps common image MIME types to an extension without
// the dot, or "" when the type is not recognized
func ExtFromContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case ct == "":
		return ""
	case strings.Contains(ct, "jpeg"):
		return "jpg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "gif"):
		return "gif"
	case strings.Contains(ct, "webp"):
		return "webp"
	case strings.Contains(ct, "svg"):
		return "svg"
	case strings.Contains(ct, "bmp"):
		return "bmp"
	}
	return ""
}
