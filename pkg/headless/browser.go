package headless

import (
	"os/exec"
	"runtime"
)

// Channel is one browser the extractor may launch
type Channel struct {
	Name string
	// Path is the executable; empty means chromedp's own lookup
	Path string
}

var lookPath = exec.LookPath

var chromePaths = map[string][]string{
	"linux": {
		"google-chrome-stable",
		"google-chrome",
		"/opt/google/chrome/chrome",
	},
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	},
}

var edgePaths = map[string][]string{
	"linux": {
		"microsoft-edge-stable",
		"microsoft-edge",
		"/opt/microsoft/msedge/msedge",
	},
	"darwin": {
		"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
	},
	"windows": {
		`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
	},
}

// Channels lists launch candidates in order: an explicit path, the default
// lookup, then installed Chrome, then installed Edge.
func Channels(browserPath string) []Channel {
	var out []Channel
	if browserPath != "" {
		out = append(out, Channel{Name: "custom", Path: browserPath})
	}
	out = append(out, Channel{Name: "default"})

	if p := findFirst(chromePaths[runtime.GOOS]); p != "" {
		out = append(out, Channel{Name: "chrome", Path: p})
	}
	if p := findFirst(edgePaths[runtime.GOOS]); p != "" {
		out = append(out, Channel{Name: "msedge", Path: p})
	}
	return out
}

func findFirst(names []string) string {
	for _, name := range names {
		if path, err := lookPath(name); err == nil {
			return path
		}
	}
	return ""
}
