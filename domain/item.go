package domain

import (
	"time"
)

// BodySource identifies which raw HTML candidate became the article body.
type BodySource string

const (
	SourceContentEncoded BodySource = "contentEncoded"
	SourceContent        BodySource = "content"
	SourceDescription    BodySource = "descriptionOrSummary"
	SourceEmpty          BodySource = "empty"
)

// ImageSource identifies the tier a representative image was taken from.
type ImageSource string

const (
	ImageSourceMediaContent   ImageSource = "media:content"
	ImageSourceMediaThumbnail ImageSource = "media:thumbnail"
	ImageSourceEnclosure      ImageSource = "enclosure"
	ImageSourceInline         ImageSource = "inline"
	ImageSourceNone           ImageSource = "none"
)

// MediaImage is an image reference carried by a feed item, either from the
// media RSS extension or from an enclosure.
type MediaImage struct {
	URL    string
	Width  int
	Height int
}

// RawHTMLCandidates keeps the competing body sources of one item distinct
// and unprocessed for downstream selection.
type RawHTMLCandidates struct {
	DescriptionOrSummary string
	ContentEncoded       string
	Content              string
}

// MediaHints collects every image signal a feed item carries.
type MediaHints struct {
	MediaContent   []MediaImage
	MediaThumbnail []MediaImage
	EnclosureImage *MediaImage
	InlineImages   []string
}

// NormalizedItem is the canonical, dialect-independent shape of one feed item.
type NormalizedItem struct {
	PublishedAt time.Time
	Title       string
	CanonicalURL string
	Author      string
	GUID        string
	FeedURL     string
	Categories  []string
	Candidates  RawHTMLCandidates
	Media       MediaHints
	IsPermaLink bool
}

// SelectionResult records which candidate won and whether a lead paragraph
// was synthesized.
type SelectionResult struct {
	ChosenSource BodySource
	LeadText     string
	BodyHTML     string
	LeadUsed     bool
}

// AssemblyDiagnostics describes what the assembler did to one item.
type AssemblyDiagnostics struct {
	ImageSource          ImageSource
	RemovedEmbeds        int
	TrackerParamsRemoved int
	Truncated            bool
}

// AssemblyResult is the sanitized, size-bounded article HTML plus diagnostics.
type AssemblyResult struct {
	ArticleHTML string
	Diagnostics AssemblyDiagnostics
}
