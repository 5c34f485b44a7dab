// Package platform holds the catalog of supported coding platforms, the
// per-platform link state and the aggregates computed over it.
package platform

import (
	"fmt"
	"strings"

	"github.com/brizzai/codetrack/internal/api"
)

// Platform identifies an external coding platform. The set is closed.
type Platform string

const (
	Codeforces Platform = "codeforces"
	GitHub     Platform = "github"
	LeetCode   Platform = "leetcode"
	CodeChef   Platform = "codechef"
)

// ErrUnsupported is returned for platform names outside the catalog.
var ErrUnsupported = api.NewValidationError("unsupported platform")

type info struct {
	name string
	hint string
}

var catalog = map[Platform]info{
	Codeforces: {
		name: "Codeforces",
		hint: "Add the code to your Codeforces profile info (firstName, lastName, or organization).",
	},
	GitHub: {
		name: "GitHub",
		hint: "Add the code to your bio on your GitHub profile page.",
	},
	LeetCode: {
		name: "LeetCode",
		hint: "Add the code to your LeetCode profile summary.",
	},
	CodeChef: {
		name: "CodeChef",
		hint: "Add the code to your Name field in your profile settings.",
	},
}

// All returns the supported platforms in display order.
func All() []Platform {
	return []Platform{Codeforces, GitHub, LeetCode, CodeChef}
}

// Parse accepts a platform name case-insensitively.
func Parse(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
	return p, nil
}

func (p Platform) String() string {
	return string(p)
}

// DisplayName is the human-readable platform name.
func (p Platform) DisplayName() string {
	if i, ok := catalog[p]; ok {
		return i.name
	}
	return string(p)
}

// Hint tells the user where to place the verification code.
func (p Platform) Hint() string {
	return catalog[p].hint
}
