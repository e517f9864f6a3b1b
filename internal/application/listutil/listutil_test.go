package listutil

import (
	"net/url"
	"slices"
	"testing"
)

// Sort whitelists as the player and team lists declare them.
var (
	playerSorts = []string{"created_at", "team_id", "user_id"}
	teamSorts   = []string{"name", "created_at"}
)

// TestParseListParams covers the query strings the roster lists receive.
func TestParseListParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		allowed []string
		want    ListParams
	}{
		{
			name:    "bare team list",
			query:   "",
			allowed: teamSorts,
			want:    ListParams{PageParams{1, DefaultPerPage}, SortParams{"", "asc"}},
		},
		{
			name:    "teams newest first on page two",
			query:   "sort=created_at&dir=desc&page=2&per_page=50",
			allowed: teamSorts,
			want:    ListParams{PageParams{2, 50}, SortParams{"created_at", "desc"}},
		},
		{
			name:    "players grouped by team",
			query:   "sort=team_id",
			allowed: playerSorts,
			want:    ListParams{PageParams{1, DefaultPerPage}, SortParams{"team_id", "asc"}},
		},
		{
			name:    "players cannot sort by name",
			query:   "sort=name&dir=desc",
			allowed: playerSorts,
			want:    ListParams{PageParams{1, DefaultPerPage}, SortParams{"", "desc"}},
		},
		{
			name:    "password hash is never a sort key",
			query:   "sort=password_hash",
			allowed: []string{"email", "role", "created_at"},
			want:    ListParams{PageParams{1, DefaultPerPage}, SortParams{"", "asc"}},
		},
		{
			name:    "injected direction falls back to asc",
			query:   "sort=name&dir=DROP%20TABLE%20team",
			allowed: teamSorts,
			want:    ListParams{PageParams{1, DefaultPerPage}, SortParams{"name", "asc"}},
		},
		{
			name:    "odd page size and negative page",
			query:   "page=-4&per_page=33",
			allowed: teamSorts,
			want:    ListParams{PageParams{1, DefaultPerPage}, SortParams{"", "asc"}},
		},
		{
			name:    "page is not a number",
			query:   "page=last&per_page=10",
			allowed: teamSorts,
			want:    ListParams{PageParams{1, 10}, SortParams{"", "asc"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery(%q): %v", tt.query, err)
			}
			if got := ParseListParams(q, tt.allowed); got != tt.want {
				t.Errorf("ParseListParams(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

// TestEncode checks the query a list delete redirects back to.
func TestEncode(t *testing.T) {
	events := ParseListParams(url.Values{"sort": {"name"}}, []string{"name", "start_time"})
	if got := events.Encode(1); got != "dir=asc&sort=name" {
		t.Errorf("Encode(1) = %q", got)
	}

	players := ParseListParams(url.Values{"sort": {"user_id"}, "dir": {"desc"}, "per_page": {"100"}}, playerSorts)
	if got := players.Encode(4); got != "dir=desc&page=4&per_page=100&sort=user_id" {
		t.Errorf("Encode(4) = %q", got)
	}

	if got := ParseListParams(url.Values{"sort": {"nickname"}}, playerSorts).Encode(1); got != "" {
		t.Errorf("unsortable list should encode empty, got %q", got)
	}
}

// TestOffsets compares the request-side and page-side offsets.
func TestOffsets(t *testing.T) {
	p := ParsePageParams(url.Values{"page": {"4"}, "per_page": {"10"}})
	if p.Offset() != 30 {
		t.Errorf("PageParams.Offset = %d, want 30", p.Offset())
	}
	// A squad with 12 players has only two pages of 10; page 4 clamps.
	info := NewPageInfo(p.Page, p.PerPage, 12)
	if info.Page != 2 || info.Offset() != 10 {
		t.Errorf("PageInfo = %+v offset %d, want page 2 offset 10", info, info.Offset())
	}
}

// TestNewPageInfo covers the pager line under a list, e.g. "21–40 of 45".
func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name               string
		page, perPage, tot int
		wantPages          int
		wantStart, wantEnd int
		prev, next         bool
	}{
		{"no teams yet", 1, 20, 0, 1, 0, 0, false, false},
		{"one coach", 1, 20, 1, 1, 1, 1, false, false},
		{"full first page of events", 1, 10, 10, 1, 1, 10, false, false},
		{"middle of the player list", 2, 20, 45, 3, 21, 40, true, true},
		{"last partial page", 3, 20, 45, 3, 41, 45, true, false},
		{"page past the end", 9, 20, 45, 3, 41, 45, true, false},
		{"zero per page uses default", 1, 0, 45, 3, 1, 20, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := NewPageInfo(tt.page, tt.perPage, tt.tot)
			if pi.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", pi.TotalPages, tt.wantPages)
			}
			if pi.StartRow() != tt.wantStart || pi.EndRow() != tt.wantEnd {
				t.Errorf("rows %d-%d, want %d-%d", pi.StartRow(), pi.EndRow(), tt.wantStart, tt.wantEnd)
			}
			if pi.HasPrev() != tt.prev || pi.HasNext() != tt.next {
				t.Errorf("prev=%v next=%v, want prev=%v next=%v", pi.HasPrev(), pi.HasNext(), tt.prev, tt.next)
			}
		})
	}
}

// TestPageNumbers checks the pager window stays five wide and in range.
func TestPageNumbers(t *testing.T) {
	tests := []struct {
		page, totalPages int
		want             []int
	}{
		{1, 2, []int{1, 2}},
		{2, 7, []int{1, 2, 3, 4, 5}},
		{4, 7, []int{2, 3, 4, 5, 6}},
		{7, 7, []int{3, 4, 5, 6, 7}},
	}
	for _, tt := range tests {
		got := NewPageInfo(tt.page, 10, tt.totalPages*10).PageNumbers()
		if !slices.Equal(got, tt.want) {
			t.Errorf("page %d of %d: PageNumbers = %v, want %v", tt.page, tt.totalPages, got, tt.want)
		}
	}
}

// TestShowPagination hides the pager when a list fits on one page.
func TestShowPagination(t *testing.T) {
	if NewPageInfo(1, 10, 10).ShowPagination() {
		t.Error("ten events on a ten-row page should not show a pager")
	}
	if !NewPageInfo(1, 10, 11).ShowPagination() {
		t.Error("eleven events should show a pager")
	}
}
