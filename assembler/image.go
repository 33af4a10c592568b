package assembler

import (
	"fmt"
	"html"

	"github.com/PuerkitoBio/goquery"

	"linkpress/domain"
)

// injectTopImage prepends a representative image chosen by tier priority
// (media:content > media:thumbnail > enclosure > first inline <img>) unless
// the body already opens with an image. Returns the tier used.
func (a *Assembler) injectTopImage(doc *goquery.Document, item *domain.NormalizedItem) domain.ImageSource {
	if bodyOpensWithImage(doc) {
		return domain.ImageSourceNone
	}

	src, tier := pickImage(item.Media)
	if src == "" {
		return domain.ImageSourceNone
	}

	img := fmt.Sprintf(`<p><img src=%q alt=%q/></p>`, src, html.EscapeString(item.Title))
	doc.Find("body").PrependHtml(img)

	return tier
}

func pickImage(media domain.MediaHints) (string, domain.ImageSource) {
	if len(media.MediaContent) > 0 && media.MediaContent[0].URL != "" {
		return media.MediaContent[0].URL, domain.ImageSourceMediaContent
	}

	if len(media.MediaThumbnail) > 0 && media.MediaThumbnail[0].URL != "" {
		return media.MediaThumbnail[0].URL, domain.ImageSourceMediaThumbnail
	}

	if media.EnclosureImage != nil && media.EnclosureImage.URL != "" {
		return media.EnclosureImage.URL, domain.ImageSourceEnclosure
	}

	if len(media.InlineImages) > 0 {
		return media.InlineImages[0], domain.ImageSourceInline
	}

	return "", domain.ImageSourceNone
}

// bodyOpensWithImage reports whether the first element of the body is, or
// immediately contains, an image.
func bodyOpensWithImage(doc *goquery.Document) bool {
	first := doc.Find("body").Children().First()
	if first.Length() == 0 {
		return false
	}

	if first.Is("img") || first.Is("figure") {
		return first.Is("img") || first.Find("img").Length() > 0
	}

	return first.Find("img").Length() > 0 && first.Children().First().Is("img")
}
