package platform

// GitHubOverview is shown when GitHub is verified.
type GitHubOverview struct {
	PublicRepos float64 `json:"publicRepos" yaml:"publicRepos"`
	TotalStars  float64 `json:"totalStars" yaml:"totalStars"`
	Followers   float64 `json:"followers" yaml:"followers"`
}

// Summary aggregates stats over the verified platforms of a snapshot.
type Summary struct {
	ProblemsSolved float64         `json:"problemsSolved" yaml:"problemsSolved"`
	Contests       float64         `json:"contests" yaml:"contests"`
	Verified       int             `json:"verified" yaml:"verified"`
	Unlinked       int             `json:"unlinked" yaml:"unlinked"`
	GitHub         *GitHubOverview `json:"github,omitempty" yaml:"github,omitempty"`
}

// Sum adds stat over every Verified platform. Missing or non-numeric values
// count as zero.
func Sum(s Snapshot, stat string) float64 {
	var total float64
	for _, p := range All() {
		if v, ok := s.Get(p).(Verified); ok {
			total += v.Stats.Number(stat)
		}
	}
	return total
}

// Summarize computes the dashboard aggregates. Nothing is cached; call it
// again after every registry change.
func Summarize(s Snapshot) Summary {
	sum := Summary{
		ProblemsSolved: Sum(s, StatProblemsSolved),
		Contests:       Sum(s, StatContests),
	}
	for _, p := range All() {
		if s.Get(p).Status() == StatusVerified {
			sum.Verified++
		}
	}
	sum.Unlinked = len(All()) - sum.Verified

	if gh, ok := s.Get(GitHub).(Verified); ok {
		sum.GitHub = &GitHubOverview{
			PublicRepos: gh.Stats.Number(StatPublicRepos),
			TotalStars:  gh.Stats.Number(StatTotalStars),
			Followers:   gh.Stats.Number(StatFollowers),
		}
	}
	return sum
}
