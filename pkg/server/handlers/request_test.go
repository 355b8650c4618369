package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		defLimit   int
		wantOffset int
		wantLimit  int
		wantErr    bool
	}{
		{
			name:      "defaults",
			url:       "/testcases",
			defLimit:  100,
			wantLimit: 100,
		},
		{
			name:       "explicit",
			url:        "/testcases?offset=20&limit=5",
			defLimit:   100,
			wantOffset: 20,
			wantLimit:  5,
		},
		{
			name:     "negative offset",
			url:      "/testcases?offset=-1",
			defLimit: 100,
			wantErr:  true,
		},
		{
			name:     "negative limit",
			url:      "/testcases?limit=-1",
			defLimit: 100,
			wantErr:  true,
		},
		{
			name:     "not a number",
			url:      "/testcases?limit=ten",
			defLimit: 100,
			wantErr:  true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", test.url, nil)
			offset, limit, err := pagination(req, test.defLimit)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantOffset, offset)
			assert.Equal(t, test.wantLimit, limit)
		})
	}
}

func TestDateParam(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    *time.Time
		wantErr bool
	}{
		{
			name: "absent",
			url:  "/testcases",
			want: nil,
		},
		{
			name: "rfc3339",
			url:  "/testcases?startDate=2026-01-02T15:04:05Z",
			want: timePtr(time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)),
		},
		{
			name: "zoneless fallback",
			url:  "/testcases?startDate=2026-01-02T15:04:05",
			want: timePtr(time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)),
		},
		{
			name:    "date only",
			url:     "/testcases?startDate=2026-01-02",
			wantErr: true,
		},
		{
			name:    "garbage",
			url:     "/testcases?startDate=yesterday",
			wantErr: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", test.url, nil)
			got, err := dateParam(req, "startDate")
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if test.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, test.want.Equal(*got), "want %s, got %s", test.want, got)
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
