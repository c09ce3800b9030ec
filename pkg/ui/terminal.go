package ui

import (
	"fmt"
	"io"
	"os"
)

// Banner printed at the top of interactive runs
const Banner = `
  imgcrawler :: paginated image crawl & download
`

// NoColor disables ANSI escapes in every helper below
var NoColor = false

// Output is where the Print helpers write
var Output io.Writer = os.Stdout

var (
	Cyan    = ansi(36)
	Yellow  = ansi(33)
	Red     = ansi(31)
	Green   = ansi(32)
	Magenta = ansi(35)
	Dim     = ansi(2)
)

// ansi returns a wrapper applying SGR code to its argument unless NoColor
// is set at call time
func ansi(code int) func(string) string {
	return func(text string) string {
		if NoColor {
			return text
		}
		return fmt.Sprintf("\033[%dm%s\033[0m", code, text)
	}
}

func PrintBanner() {
	fmt.Fprint(Output, Cyan(Banner))
}

// PrintError prints msg in red, followed by ": detail" when given
func PrintError(msg string, detail ...interface{}) {
	fmt.Fprintln(Output, Red(withDetail(msg, detail)))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints "label: value" with the label highlighted
func PrintInfo(label, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, detail ...interface{}) {
	fmt.Fprintln(Output, Yellow(withDetail(msg, detail)))
}

func withDetail(msg string, detail []interface{}) string {
	if len(detail) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, detail[0])
}
