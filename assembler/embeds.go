package assembler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripDisallowedEmbeds removes embedded media elements and returns the
// removal count. embed/object have no sanitization story and are always
// dropped; iframes survive only when embeds are kept and the host is
// allowlisted, matching what the sanitizer policy lets through.
func (a *Assembler) stripDisallowedEmbeds(doc *goquery.Document) int {
	removed := 0

	doc.Find("embed, object").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
		removed++
	})

	doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		if a.options.KeepEmbeds && a.iframeHostAllowed(s) {
			return
		}

		s.Remove()
		removed++
	})

	return removed
}

func (a *Assembler) iframeHostAllowed(s *goquery.Selection) bool {
	src, ok := s.Attr("src")
	if !ok || src == "" {
		return false
	}

	parsed, err := url.Parse(src)
	if err != nil || parsed.Hostname() == "" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())

	for _, allowed := range a.options.AllowedIframeHosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}

	return false
}
