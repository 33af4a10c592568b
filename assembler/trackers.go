package assembler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// defaultTrackerParams are the well-known tracking query parameters stripped
// from outbound anchors when no custom list is configured.
var defaultTrackerParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"gclid", "fbclid", "mc_cid", "mc_eid", "igshid", "yclid", "ref_src",
}

// rewriteTrackerParams strips tracking parameters from every anchor href and
// marks rewritten anchors with rel="noopener noreferrer". Returns the number
// of parameters removed.
func (a *Assembler) rewriteTrackerParams(doc *goquery.Document) int {
	trackerList := a.options.TrackerParams
	if len(trackerList) == 0 {
		trackerList = defaultTrackerParams
	}

	removed := 0

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		cleaned, count := stripTrackerParams(href, trackerList)
		if count == 0 {
			return
		}

		removed += count
		s.SetAttr("href", cleaned)
		s.SetAttr("rel", "noopener noreferrer")
	})

	return removed
}

func stripTrackerParams(href string, trackers []string) (string, int) {
	parsed, err := url.Parse(href)
	if err != nil || parsed.RawQuery == "" {
		return href, 0
	}

	query := parsed.Query()
	removed := 0

	for key := range query {
		if isTrackerParam(key, trackers) {
			query.Del(key)
			removed++
		}
	}

	if removed == 0 {
		return href, 0
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), removed
}

// isTrackerParam matches exact names plus the utm_* family when any utm
// parameter is listed.
func isTrackerParam(key string, trackers []string) bool {
	lowered := strings.ToLower(key)

	for _, t := range trackers {
		t = strings.ToLower(t)
		if lowered == t {
			return true
		}
		if strings.HasSuffix(t, "*") && strings.HasPrefix(lowered, strings.TrimSuffix(t, "*")) {
			return true
		}
	}

	return false
}
