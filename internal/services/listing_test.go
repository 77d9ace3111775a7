package services

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name         string
		params       ListParams
		wantPage     int
		wantPageSize int
		wantSort     bson.D
	}{
		{
			name:         "Defaults",
			params:       ListParams{},
			wantPage:     1,
			wantPageSize: DefaultPageSize,
			wantSort:     bson.D{{Key: "created_at", Value: -1}},
		},
		{
			name:         "Negative Page Clamped",
			params:       ListParams{Page: -3, PageSize: 10},
			wantPage:     1,
			wantPageSize: 10,
			wantSort:     bson.D{{Key: "created_at", Value: -1}},
		},
		{
			name:         "Oversized Page Size Clamped",
			params:       ListParams{Page: 2, PageSize: 500},
			wantPage:     2,
			wantPageSize: MaxPageSize,
			wantSort:     bson.D{{Key: "created_at", Value: -1}},
		},
		{
			name:         "Allowed Sort Ascending",
			params:       ListParams{SortBy: "name", SortDir: "asc"},
			wantPage:     1,
			wantPageSize: DefaultPageSize,
			wantSort:     bson.D{{Key: "name", Value: 1}},
		},
		{
			name:         "Allowed Sort Default Direction",
			params:       ListParams{SortBy: "size"},
			wantPage:     1,
			wantPageSize: DefaultPageSize,
			wantSort:     bson.D{{Key: "size", Value: -1}},
		},
		{
			name:         "Unknown Sort Falls Back",
			params:       ListParams{SortBy: "owner_id", SortDir: "asc"},
			wantPage:     1,
			wantPageSize: DefaultPageSize,
			wantSort:     bson.D{{Key: "created_at", Value: -1}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, pageSize, sort := tc.params.normalize(fileSortFields)
			if page != tc.wantPage {
				t.Errorf("Expected page %d, got %d", tc.wantPage, page)
			}
			if pageSize != tc.wantPageSize {
				t.Errorf("Expected page size %d, got %d", tc.wantPageSize, pageSize)
			}
			if len(sort) != 1 || sort[0].Key != tc.wantSort[0].Key || sort[0].Value != tc.wantSort[0].Value {
				t.Errorf("Expected sort %v, got %v", tc.wantSort, sort)
			}
		})
	}

	t.Run("Folder Fields Exclude Size", func(t *testing.T) {
		_, _, sort := ListParams{SortBy: "size", SortDir: "asc"}.normalize(folderSortFields)
		if sort[0].Key != "created_at" || sort[0].Value != -1 {
			t.Errorf("Expected fallback sort for folders, got %v", sort)
		}
	})

	t.Run("Link Fields Allow Expiry", func(t *testing.T) {
		_, _, sort := ListParams{SortBy: "expires_at", SortDir: "asc"}.normalize(linkSortFields)
		if sort[0].Key != "expires_at" || sort[0].Value != 1 {
			t.Errorf("Expected expires_at ascending, got %v", sort)
		}
	})
}

func TestFindOptions(t *testing.T) {
	opts := findOptions(3, 25, bson.D{{Key: "name", Value: 1}})
	if opts.Skip == nil || *opts.Skip != 50 {
		t.Errorf("Expected skip 50, got %v", opts.Skip)
	}
	if opts.Limit == nil || *opts.Limit != 25 {
		t.Errorf("Expected limit 25, got %v", opts.Limit)
	}
}

func TestNewPageMeta(t *testing.T) {
	cases := []struct {
		name      string
		total     int64
		page      int
		pageSize  int
		wantPages int64
	}{
		{"Empty", 0, 1, 20, 0},
		{"Exact Fit", 40, 1, 20, 2},
		{"Partial Last Page", 41, 1, 20, 3},
		{"Single Item", 1, 1, 20, 1},
		{"Page Size One", 7, 3, 1, 7},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := NewPageMeta(tc.total, tc.page, tc.pageSize)
			if meta.TotalPages != tc.wantPages {
				t.Errorf("Expected %d pages, got %d", tc.wantPages, meta.TotalPages)
			}
			if meta.TotalItems != tc.total {
				t.Errorf("Expected %d items, got %d", tc.total, meta.TotalItems)
			}
			if meta.Page != tc.page || meta.PageSize != tc.pageSize {
				t.Errorf("Page echo mismatch: got page %d size %d", meta.Page, meta.PageSize)
			}
		})
	}
}

func TestSubstringFilter(t *testing.T) {
	re := substringFilter("report (final).pdf")
	if re.Options != "i" {
		t.Errorf("Expected case-insensitive filter, got options %q", re.Options)
	}
	if re.Pattern != `report \(final\)\.pdf` {
		t.Errorf("Expected metacharacters escaped, got %q", re.Pattern)
	}
}
