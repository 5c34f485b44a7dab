package platform

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_DefaultsToUnlinked(t *testing.T) {
	r := NewRegistry()
	for _, p := range All() {
		assert.Equal(t, StatusUnlinked, r.Get(p).Status())
	}
	assert.Len(t, r.Snapshot(), len(All()))
}

func TestRegistry_ReplaceIsWholesale(t *testing.T) {
	r := NewRegistry()
	r.Replace(map[Platform]LinkState{
		GitHub:     Verified{Username: "alice", Stats: Stats{"followers": float64(3)}},
		Codeforces: Verified{Username: "tourist"},
	})
	r.Replace(map[Platform]LinkState{
		LeetCode: Verified{Username: "alice"},
	})

	assert.Equal(t, StatusUnlinked, r.Get(GitHub).Status())
	assert.Equal(t, StatusUnlinked, r.Get(Codeforces).Status())
	assert.Equal(t, StatusVerified, r.Get(LeetCode).Status())
}

func TestRegistry_ReplaceKeepsPendingChallenges(t *testing.T) {
	r := NewRegistry()
	r.Set(GitHub, Pending{Username: "alice", Code: "AB12CD"})
	r.Set(LeetCode, Pending{Username: "alice", Code: "ZZ99ZZ"})

	r.Replace(map[Platform]LinkState{
		GitHub:   Unlinked{},
		LeetCode: Verified{Username: "alice"},
	})

	assert.Equal(t, Pending{Username: "alice", Code: "AB12CD"}, r.Get(GitHub))
	assert.Equal(t, StatusVerified, r.Get(LeetCode).Status(), "a verified record supersedes the challenge")
}

func TestRegistry_ReplaceIgnoresUnknownPlatforms(t *testing.T) {
	r := NewRegistry()
	r.Replace(map[Platform]LinkState{"hackerrank": Verified{Username: "alice"}})
	_, ok := r.Snapshot()["hackerrank"]
	assert.False(t, ok)
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Set(GitHub, Verified{Username: "alice", Stats: Stats{"followers": float64(3)}})

	snap := r.Snapshot()
	snap[GitHub].(Verified).Stats["followers"] = float64(1000)
	snap[Codeforces] = Verified{Username: "mallory"}

	assert.Equal(t, 3.0, r.Get(GitHub).(Verified).Stats.Number("followers"))
	assert.Equal(t, StatusUnlinked, r.Get(Codeforces).Status())
}

func TestRegistry_SetUnlinkedAndClear(t *testing.T) {
	r := NewRegistry()
	r.Set(GitHub, Pending{Username: "alice", Code: "AB12CD"})
	r.Set(GitHub, Unlinked{})
	assert.Equal(t, Unlinked{}, r.Get(GitHub))

	r.Set(GitHub, Verified{Username: "alice"})
	r.Set(CodeChef, Pending{Username: "bob", Code: "X"})
	r.Clear()
	for _, p := range All() {
		assert.Equal(t, StatusUnlinked, r.Get(p).Status())
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			r.Replace(map[Platform]LinkState{GitHub: Verified{Username: "alice"}})
		}()
		go func() {
			defer wg.Done()
			r.Set(LeetCode, Pending{Username: "alice", Code: "C"})
		}()
		go func() {
			defer wg.Done()
			_ = Summarize(r.Snapshot())
		}()
	}
	wg.Wait()
	assert.Equal(t, StatusVerified, r.Get(GitHub).Status())
}
