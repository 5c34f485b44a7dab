package platform

import (
	"errors"
	"math"
	"testing"

	"github.com/brizzai/codetrack/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{in: "github", want: GitHub},
		{in: " LeetCode ", want: LeetCode},
		{in: "CODEFORCES", want: Codeforces},
		{in: "codechef", want: CodeChef},
		{in: "hackerrank", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupported))
				assert.True(t, api.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []Platform{Codeforces, GitHub, LeetCode, CodeChef}, All())
	for _, p := range All() {
		assert.NotEmpty(t, p.DisplayName())
		assert.NotEmpty(t, p.Hint())
	}
	assert.Equal(t, "GitHub", GitHub.DisplayName())
	assert.Contains(t, CodeChef.Hint(), "Name field")
}

func TestStats_Visible(t *testing.T) {
	stats := Stats{
		"problemsSolved":   float64(120),
		"rating":           float64(1432),
		"rank":             "Expert",
		"contests":         float64(0),
		"lastFetched":      "2024-05-01T10:00:00Z",
		"problemRatings":   map[string]any{"800": float64(10)},
		"totalSubmissions": float64(500),
		"maxStreak":        float64(12),
		"country":          "",
	}

	got := stats.Visible()
	assert.Equal(t, []Stat{
		{Key: "problemsSolved", Label: "Problems Solved", Value: "120"},
		{Key: "rank", Label: "Rank", Value: "Expert"},
		{Key: "rating", Label: "Rating", Value: "1432"},
	}, got)
}

func TestStats_Number(t *testing.T) {
	stats := Stats{"a": float64(3), "b": "7", "c": "n/a", "d": 4, "e": "NaN", "f": "-Inf", "g": math.Inf(1)}
	assert.Equal(t, 3.0, stats.Number("a"))
	assert.Equal(t, 7.0, stats.Number("b"))
	assert.Equal(t, 0.0, stats.Number("c"))
	assert.Equal(t, 4.0, stats.Number("d"))
	assert.Equal(t, 0.0, stats.Number("missing"))
	assert.Equal(t, 0.0, stats.Number("e"))
	assert.Equal(t, 0.0, stats.Number("f"))
	assert.Equal(t, 0.0, stats.Number("g"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Public Repos", Label("public_repos"))
	assert.Equal(t, "Total Stars", Label("total_stars"))
	assert.Equal(t, "Problems Solved", Label("problemsSolved"))
	assert.Equal(t, "Rating", Label("rating"))
}

func TestFromRecord(t *testing.T) {
	assert.Equal(t, Unlinked{}, FromRecord("alice", false, map[string]any{"x": 1}))

	st := FromRecord("alice", true, map[string]any{"followers": float64(3)})
	v, ok := st.(Verified)
	require.True(t, ok)
	assert.Equal(t, "alice", v.Username)
	assert.Equal(t, 3.0, v.Stats.Number("followers"))
}
