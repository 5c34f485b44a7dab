package platform

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Well-known stat keys.
const (
	StatProblemsSolved = "problemsSolved"
	StatContests       = "contests"
	StatRating         = "rating"
	StatPublicRepos    = "public_repos"
	StatTotalStars     = "total_stars"
	StatFollowers      = "followers"
	StatLastFetched    = "lastFetched"
)

// Keys kept in the data but never shown.
var hiddenStats = map[string]bool{
	StatLastFetched:    true,
	"problemRatings":   true,
	"totalSubmissions": true,
	"maxStreak":        true,
}

// Stats is a platform-specific mapping of stat name to value.
type Stats map[string]any

// Number returns the numeric value of key, or 0 when it is missing, not a
// number, or not finite.
func (s Stats) Number(key string) float64 {
	f := number(s[key])
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func number(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Stat is one displayable stat.
type Stat struct {
	Key   string
	Label string
	Value string
}

// Visible returns the displayable stats sorted by key. Hidden keys and
// zero or empty values are left out.
func (s Stats) Visible() []Stat {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Stat, 0, len(keys))
	for _, k := range keys {
		if hiddenStats[k] {
			continue
		}
		value, ok := formatValue(s[k])
		if !ok {
			continue
		}
		out = append(out, Stat{Key: k, Label: Label(k), Value: value})
	}
	return out
}

// Clone returns a shallow copy.
func (s Stats) Clone() Stats {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

func formatValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		if val == 0 {
			return "", false
		}
		return strconv.Itoa(val), true
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case map[string]any, []any:
		// Nested structures have no flat rendering.
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}

// Label turns a camelCase or snake_case key into words: "problemsSolved"
// becomes "Problems Solved", "public_repos" becomes "Public Repos".
func Label(key string) string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
