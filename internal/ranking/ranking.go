// Package ranking contains pure read-side computations over ledger snapshots.
package ranking

import (
	"regexp"
	"sort"

	"github.com/samber/lo"

	"github.com/chainfeed/chainfeed/internal/entities"
)

var hashtagRegexp = regexp.MustCompile(`#\w+`)

// Hashtag is a tag with its occurrence count across post content.
type Hashtag struct {
	Tag   string
	Count uint64
}

// Leaderboard returns at most n users ordered by total rewards descending.
// Ties break by ascending address so repeated calls are reproducible.
func Leaderboard(users []*entities.User, n int) []*entities.User {
	out := append([]*entities.User(nil), users...)

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRewards.Cmp(out[j].TotalRewards); c != 0 {
			return c > 0
		}
		return out[i].Address < out[j].Address
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}

	return out
}

// TrendingHashtags returns at most n hashtags ordered by occurrence count
// descending. Every occurrence counts: a post containing the same tag twice
// contributes two. Ties break by ascending tag.
func TrendingHashtags(posts []*entities.Post, n int) []Hashtag {
	counts := map[string]uint64{}
	for _, p := range posts {
		for _, tag := range hashtagRegexp.FindAllString(p.Content, -1) {
			counts[tag]++
		}
	}

	out := lo.MapToSlice(counts, func(tag string, count uint64) Hashtag {
		return Hashtag{Tag: tag, Count: count}
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}

	return out
}
