package handler

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/memes/feed", 10, 0},
		{"explicit", "/memes/feed?limit=25&offset=50", 25, 50},
		{"limit clamped", "/memes/feed?limit=500", 50, 0},
		{"negative ignored", "/memes/feed?limit=-5&offset=-1", 10, 0},
		{"garbage ignored", "/memes/feed?limit=abc&offset=xyz", 10, 0},
		{"zero limit ignored", "/memes/feed?limit=0", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			limit, offset := parsePagination(r)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
