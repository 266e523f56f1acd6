package db

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentPredictionsQuery(t *testing.T) {
	since := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		filter   PredictionFilter
		wantSQL  []string
		wantArgs []interface{}
	}{
		{
			name:    "no filter uses default limit",
			filter:  PredictionFilter{},
			wantSQL: []string{"FROM predictions", "ORDER BY created_at DESC", "LIMIT 50"},
		},
		{
			name:     "label and source",
			filter:   PredictionFilter{Label: "FAKE", Source: SourceFeed, Limit: 10},
			wantSQL:  []string{"label = $1", "source = $2", "LIMIT 10"},
			wantArgs: []interface{}{"FAKE", SourceFeed},
		},
		{
			name:     "since with capped limit",
			filter:   PredictionFilter{Since: since, Limit: 5000},
			wantSQL:  []string{"created_at >= $1", "LIMIT 1000"},
			wantArgs: []interface{}{since},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := recentPredictionsQuery(tt.filter).ToSql()
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(query, "SELECT id, model_id, source"), query)

			for _, fragment := range tt.wantSQL {
				assert.Contains(t, query, fragment)
			}

			if len(tt.wantArgs) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", Excerpt("  abc  ", 10))
	assert.Equal(t, "héll", Excerpt("héllo", 4))
	assert.Equal(t, "ok", Excerpt("ok\xff", 10))
}
