package assembler

import (
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true,
	"meta": true, "link": true, "source": true, "wbr": true,
}

// enforceSizeCap truncates the fragment at a tag boundary so every element
// the output opens is also closed. The returned string never exceeds
// maxBytes + len(TruncationNotice).
func enforceSizeCap(fragment string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(fragment) <= maxBytes {
		return fragment, false
	}

	var b strings.Builder
	var open []string

	z := html.NewTokenizer(strings.NewReader(fragment))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		token := z.Token()
		rendered := token.String()

		// Budget must still cover the closing tags for everything open.
		pending := closingLen(open)
		switch tt {
		case html.StartTagToken:
			if !voidElements[token.Data] {
				pending += len(token.Data) + 3 // the new element's own close tag
			}
		case html.EndTagToken:
			if n := len(open); n > 0 && open[n-1] == token.Data {
				pending -= len(token.Data) + 3
			}
		}

		if b.Len()+len(rendered)+pending > maxBytes {
			break
		}

		b.WriteString(rendered)

		switch tt {
		case html.StartTagToken:
			if !voidElements[token.Data] {
				open = append(open, token.Data)
			}
		case html.EndTagToken:
			if n := len(open); n > 0 && open[n-1] == token.Data {
				open = open[:n-1]
			}
		}
	}

	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</" + open[i] + ">")
	}

	b.WriteString(TruncationNotice)

	return b.String(), true
}

func closingLen(open []string) int {
	total := 0
	for _, tag := range open {
		total += len(tag) + 3 // "</" + tag + ">"
	}
	return total
}
