package ranking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainfeed/chainfeed/internal/entities"
)

func user(address string, rewards int64) *entities.User {
	return &entities.User{
		Address:      address,
		TokenBalance: new(big.Int),
		TotalRewards: big.NewInt(rewards),
	}
}

func TestLeaderboard(t *testing.T) {
	users := []*entities.User{
		user("carol", 5),
		user("alice", 20),
		user("bob", 10),
	}

	out := Leaderboard(users, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "alice", out[0].Address)
	assert.Equal(t, "bob", out[1].Address)
}

func TestLeaderboard_tieBreak(t *testing.T) {
	users := []*entities.User{
		user("zed", 10),
		user("amy", 10),
		user("mia", 10),
	}

	out := Leaderboard(users, 3)
	require.Len(t, out, 3)
	// equal scores order by ascending address
	assert.Equal(t, []string{"amy", "mia", "zed"}, []string{out[0].Address, out[1].Address, out[2].Address})

	// stable across repeated calls
	again := Leaderboard(users, 3)
	assert.Equal(t, out, again)
}

func TestLeaderboard_doesNotMutateInput(t *testing.T) {
	users := []*entities.User{user("b", 1), user("a", 2)}

	Leaderboard(users, 2)
	assert.Equal(t, "b", users[0].Address)
}

func TestTrendingHashtags(t *testing.T) {
	posts := []*entities.Post{
		{Content: "#ICP #ICP #Web3"},
		{Content: "no tags here"},
		{Content: "more #Web3 and #NFT"},
	}

	out := TrendingHashtags(posts, 10)
	require.Len(t, out, 3)
	assert.Equal(t, Hashtag{Tag: "#ICP", Count: 2}, out[0])
	assert.Equal(t, Hashtag{Tag: "#Web3", Count: 2}, out[1])
	assert.Equal(t, Hashtag{Tag: "#NFT", Count: 1}, out[2])
}

func TestTrendingHashtags_limit(t *testing.T) {
	posts := []*entities.Post{{Content: "#a #b #c"}}

	out := TrendingHashtags(posts, 2)
	require.Len(t, out, 2)
	// equal counts order by ascending tag
	assert.Equal(t, "#a", out[0].Tag)
	assert.Equal(t, "#b", out[1].Tag)
}

func TestTrendingHashtags_empty(t *testing.T) {
	assert.Empty(t, TrendingHashtags(nil, 5))
	assert.Empty(t, TrendingHashtags([]*entities.Post{{Content: "plain"}}, 5))
}
