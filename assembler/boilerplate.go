package assembler

import (
	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelectors match known newsletter and publisher promo blocks by
// structural signature. The list grows as new publishers show up in feeds.
var boilerplateSelectors = []string{
	".feedflare",
	"[class*='sharedaddy']",
	"[class*='jp-relatedposts']",
	"[class*='related-posts']",
	"[class*='newsletter-signup']",
	"[class*='newsletter-form']",
	"[class*='subscribe-block']",
	"[class*='subscribe-cta']",
	"[class*='sponsor-block']",
	"[id*='newsletter-signup']",
	"img[src*='feeds.feedburner.com']",
	"img[src*='feedads']",
	"img[width='1'][height='1']",
}

// stripBoilerplate removes recognized promo blocks and tracking pixels.
func stripBoilerplate(doc *goquery.Document) {
	for _, selector := range boilerplateSelectors {
		doc.Find(selector).Remove()
	}
}
