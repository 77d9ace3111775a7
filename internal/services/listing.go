package services

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Paging bounds for every listing endpoint.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams carries the common listing inputs: paging, sorting and an
// optional substring filter.
type ListParams struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
	Query    string
}

// Sort allow-lists, mapping API sort keys onto stored fields. Unknown
// keys fall back to creation time, descending.
var (
	fileSortFields = map[string]string{
		"name":       "name",
		"size":       "size",
		"downloads":  "downloads",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	folderSortFields = map[string]string{
		"name":       "name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	linkSortFields = map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"expires_at": "expires_at",
	}
)

// normalize clamps paging values and resolves the sort key against the
// given allow-list.
func (p ListParams) normalize(allowed map[string]string) (page, pageSize int, sort bson.D) {
	page = p.Page
	if page < 1 {
		page = 1
	}
	pageSize = p.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	field, ok := allowed[p.SortBy]
	dir := -1
	if p.SortDir == "asc" {
		dir = 1
	}
	if !ok {
		// Unrecognized sort keys fall back to newest-first.
		field = "created_at"
		dir = -1
	}
	return page, pageSize, bson.D{{Key: field, Value: dir}}
}

// findOptions builds the skip/limit/sort options for a normalized page.
func findOptions(page, pageSize int, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSkip(int64(page-1) * int64(pageSize)).
		SetLimit(int64(pageSize)).
		SetSort(sort)
}

// substringFilter builds a case-insensitive, escaped substring match.
func substringFilter(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	TotalItems int64 `json:"total_items"`
	TotalPages int64 `json:"total_pages"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

// NewPageMeta computes the page envelope for a total count.
func NewPageMeta(total int64, page, pageSize int) PageMeta {
	pages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		pages++
	}
	return PageMeta{TotalItems: total, TotalPages: pages, Page: page, PageSize: pageSize}
}

// ItemResult reports the outcome of one element of a bulk operation.
// Bulk endpoints never roll back siblings; they report per item instead.
type ItemResult struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Statuses used in ItemResult.
const (
	StatusMoved    = "moved"
	StatusCopied   = "copied"
	StatusRestored = "restored"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)
