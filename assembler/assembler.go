// ABOUTME: This file assembles sanitized, size-bounded article HTML from a selected body
// ABOUTME: Passes run in a fixed order: fallback, embeds, boilerplate, trackers, image, size cap
package assembler

import (
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"linkpress/config"
	"linkpress/domain"
	"linkpress/normalizer"
)

// TruncationNotice is appended verbatim whenever the size cap fires.
const TruncationNotice = `<p><em>[Content truncated]</em></p>`

// Assembler turns a selection result into final article HTML.
type Assembler struct {
	policy  *bluemonday.Policy
	logger  *slog.Logger
	options config.AssemblyConfig
}

// New builds an assembler for the given options.
func New(options config.AssemblyConfig, logger *slog.Logger) *Assembler {
	return &Assembler{
		policy:  buildPolicy(options),
		logger:  logger,
		options: options,
	}
}

// Assemble sanitizes the selected HTML, injects a representative image and
// enforces the byte budget. The output never exceeds
// MaxHTMLKB*1024 + len(TruncationNotice) bytes.
func (a *Assembler) Assemble(item *domain.NormalizedItem, selection domain.SelectionResult) domain.AssemblyResult {
	diagnostics := domain.AssemblyDiagnostics{ImageSource: domain.ImageSourceNone}

	body := selection.BodyHTML
	if selection.LeadUsed && selection.LeadText != "" {
		body = fmt.Sprintf("<p>%s</p>\n%s", html.EscapeString(selection.LeadText), body)
	}

	if normalizer.StripTags(body) == "" {
		return domain.AssemblyResult{
			ArticleHTML: a.fallbackHTML(item),
			Diagnostics: diagnostics,
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		a.logger.Warn("failed to parse body html, using fallback", "error", err, "url", item.CanonicalURL)
		return domain.AssemblyResult{
			ArticleHTML: a.fallbackHTML(item),
			Diagnostics: diagnostics,
		}
	}

	diagnostics.RemovedEmbeds = a.stripDisallowedEmbeds(doc)

	if a.options.StripKnownBoilerplate {
		stripBoilerplate(doc)
	}

	diagnostics.TrackerParamsRemoved = a.rewriteTrackerParams(doc)

	if a.options.InjectTopImage {
		diagnostics.ImageSource = a.injectTopImage(doc, item)
	}

	rendered, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(rendered) == "" {
		return domain.AssemblyResult{
			ArticleHTML: a.fallbackHTML(item),
			Diagnostics: diagnostics,
		}
	}

	sanitized := a.policy.Sanitize(rendered)

	final, truncated := enforceSizeCap(sanitized, a.options.MaxHTMLKB*1024)
	diagnostics.Truncated = truncated

	return domain.AssemblyResult{ArticleHTML: final, Diagnostics: diagnostics}
}

// Fallback produces the minimal article used when a body is empty or an item
// failed normalization outright.
func (a *Assembler) Fallback(title, link string) domain.AssemblyResult {
	return domain.AssemblyResult{
		ArticleHTML: a.fallbackParagraph(title, link),
		Diagnostics: domain.AssemblyDiagnostics{ImageSource: domain.ImageSourceNone},
	}
}

// Excerpt renders a plain-text snippet bounded by ExcerptMaxChars.
func (a *Assembler) Excerpt(bodyHTML, description string) string {
	text := normalizer.StripTags(bodyHTML)
	if text == "" {
		text = normalizer.StripTags(description)
	}

	limit := a.options.ExcerptMaxChars
	if limit <= 0 || len(text) <= limit {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func (a *Assembler) fallbackHTML(item *domain.NormalizedItem) string {
	return a.fallbackParagraph(item.Title, item.CanonicalURL)
}

func (a *Assembler) fallbackParagraph(title, link string) string {
	escaped := html.EscapeString(strings.TrimSpace(title))

	if link == "" {
		return fmt.Sprintf("<p>%s</p>", escaped)
	}

	return fmt.Sprintf(`<p>%s <a href=%q rel="noopener noreferrer">%s</a></p>`,
		escaped, link, html.EscapeString(link))
}

func buildPolicy(options config.AssemblyConfig) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("article", "section", "div", "p", "span", "br", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li",
		"blockquote", "pre", "code", "b", "strong", "i", "em", "u",
		"figure", "figcaption", "table", "thead", "tbody", "tr", "td", "th",
		"a", "img")
	p.AllowAttrs("href", "rel", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowURLSchemes("http", "https")

	if options.KeepEmbeds {
		p.AllowElements("iframe")
		p.AllowAttrs("src", "width", "height", "allow", "allowfullscreen", "frameborder").OnElements("iframe")
	}

	return p
}
