package normalizer

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes markup from an HTML fragment and returns plain text.
// script/style blocks are skipped entirely and runs of whitespace collapse
// to a single space.
func StripTags(raw string) string {
	if !strings.Contains(raw, "<") {
		return normalizeWS(raw)
	}

	return stripCore(strings.NewReader(raw))
}

func stripCore(r io.Reader) string {
	var b strings.Builder
	z := html.NewTokenizer(r)

	depthSkip := 0

	for {
		switch tt := z.Next(); tt {
		case html.ErrorToken:
			return normalizeWS(b.String())

		case html.StartTagToken:
			name, _ := z.TagName()
			if skipTag(name) {
				depthSkip++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if skipTag(name) && depthSkip > 0 {
				depthSkip--
			}

		case html.TextToken:
			if depthSkip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func skipTag(name []byte) bool {
	switch string(name) {
	case "script", "style", "noscript":
		return true
	}
	return false
}

func normalizeWS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
