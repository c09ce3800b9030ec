package extractor

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

type srcsetCandidate struct {
	url        string
	descriptor string
}

// parseSrcset splits a srcset value into candidates. A URL runs up to the
// next whitespace, so commas inside data: URIs do not split it.
func parseSrcset(srcset string) []srcsetCandidate {
	var out []srcsetCandidate
	s := srcset

	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
		if s == "" {
			return out
		}

		end := strings.IndexFunc(s, unicode.IsSpace)
		if end < 0 {
			end = len(s)
		}
		rawURL := s[:end]
		s = s[end:]

		if trimmed := strings.TrimRight(rawURL, ","); trimmed != rawURL {
			out = append(out, srcsetCandidate{url: trimmed})
			continue
		}

		descriptor := s
		if comma := strings.IndexByte(s, ','); comma >= 0 {
			descriptor, s = s[:comma], s[comma+1:]
		} else {
			s = ""
		}
		out = append(out, srcsetCandidate{url: rawURL, descriptor: strings.TrimSpace(descriptor)})
	}
}

// pickFromSrcset returns the highest scoring absolute URL of a srcset value.
// A width descriptor "Nw" scores N and a density descriptor "Nx" scores N*100,
// so mixed lists compare the two on one scale. Ties go to the later candidate.
func pickFromSrcset(srcset string, resolve func(string) (string, bool)) string {
	best, bestScore := "", -1

	for _, c := range parseSrcset(srcset) {
		abs, ok := resolve(c.url)
		if !ok {
			continue
		}

		score := 0
		for _, d := range strings.Fields(c.descriptor) {
			if score = descriptorScore(d); score > 0 {
				break
			}
		}
		if score >= bestScore {
			best, bestScore = abs, score
		}
	}

	return best
}

// descriptorScore scores a single srcset descriptor, 0 when unrecognized
func descriptorScore(d string) int {
	d = strings.ToLower(d)
	switch {
	case strings.HasSuffix(d, "w"):
		n, err := strconv.Atoi(strings.TrimSuffix(d, "w"))
		if err != nil || n < 0 {
			return 0
		}
		return n
	case strings.HasSuffix(d, "x"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(d, "x"), 64)
		if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0
		}
		return int(math.Round(f * 100))
	}
	return 0
}
