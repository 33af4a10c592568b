package domain

import (
	"time"
)

// PostStatus tracks the lifecycle of a generation attempt.
type PostStatus string

const (
	PostStatusPending PostStatus = "PENDING"
	PostStatusSuccess PostStatus = "SUCCESS"
	PostStatusFailed  PostStatus = "FAILED"
)

// Article represents a persisted, deduplicated feed item.
type Article struct {
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	PublishedAt    time.Time `db:"published_at" json:"published_at"`
	ID             string    `db:"id" json:"id"`
	FeedID         string    `db:"feed_id" json:"feed_id"`
	Title          string    `db:"title" json:"title"`
	ContentSnippet string    `db:"content_snippet" json:"content_snippet,omitempty"`
	ArticleHTML    string    `db:"article_html" json:"article_html"`
	GUID           string    `db:"guid" json:"guid,omitempty"`
	Link           string    `db:"link" json:"link,omitempty"`
	DedupeKey      string    `db:"dedupe_key" json:"-"`
}

// Post is the 1:1 generation-attempt record created alongside its Article.
type Post struct {
	GeneratedAt    *time.Time `db:"generated_at" json:"generated_at,omitempty"`
	ArticleID      string     `db:"article_id" json:"article_id"`
	Content        string     `db:"content" json:"content,omitempty"`
	Status         PostStatus `db:"status" json:"status"`
	ErrorReason    string     `db:"error_reason" json:"error_reason,omitempty"`
	PromptBaseHash string     `db:"prompt_base_hash" json:"prompt_base_hash,omitempty"`
	ModelUsed      string     `db:"model_used" json:"model_used,omitempty"`
	AttemptCount   int        `db:"attempt_count" json:"attempt_count"`
	TokensInput    int        `db:"tokens_input" json:"tokens_input,omitempty"`
	TokensOutput   int        `db:"tokens_output" json:"tokens_output,omitempty"`
}

// ArticleWithPost pairs an article with its generation record for listing.
type ArticleWithPost struct {
	Article Article `json:"article"`
	Post    Post    `json:"post"`
}
