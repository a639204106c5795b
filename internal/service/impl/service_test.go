package impl

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainfeed/chainfeed/internal/service"
	"github.com/chainfeed/chainfeed/internal/storage"
	"github.com/chainfeed/chainfeed/internal/storage/inmemory"
)

var ctx = context.Background()

func newService(t *testing.T) *srv {
	t.Helper()

	return &srv{
		s: inmemory.New(),
		rewards: service.Rewards{
			Post:    big.NewInt(10),
			Like:    big.NewInt(5),
			Comment: big.NewInt(2),
		},
		now: func() time.Time { return time.Unix(1000, 0) },
	}
}

func TestService_CreatePost(t *testing.T) {
	s := newService(t)

	id, err := s.CreatePost(ctx, "alice", "hello #Test", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	// ids strictly increase
	id, err = s.CreatePost(ctx, "alice", "again", "img.png")
	require.NoError(t, err)
	assert.EqualValues(t, 2, id)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Zero(t, posts[0].Likes)
	assert.Zero(t, posts[0].Rewards.Sign())

	// author was created lazily and earned the post reward twice
	u, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, u.TokenBalance.Cmp(big.NewInt(20)))
	assert.Zero(t, u.TotalRewards.Cmp(big.NewInt(20)))
	assert.EqualValues(t, 2, u.PostsCount)
}

func TestService_CreatePost_emptyContent(t *testing.T) {
	s := newService(t)

	_, err := s.CreatePost(ctx, "alice", "", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	// nothing was created, not even the profile
	_, err = s.GetProfile(ctx, "alice")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_LikePost(t *testing.T) {
	s := newService(t)

	id, err := s.CreatePost(ctx, "alice", "likeable", "")
	require.NoError(t, err)

	require.NoError(t, s.LikePost(ctx, "bob", id))
	// likes are cumulative, a second call counts again
	require.NoError(t, s.LikePost(ctx, "bob", id))

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, posts[0].Likes)
	assert.Zero(t, posts[0].Rewards.Cmp(big.NewInt(10)))

	// the author earns the like reward, the liker earns nothing
	alice, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, alice.TotalRewards.Cmp(big.NewInt(20)))

	bob, err := s.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, bob.TotalRewards.Sign())
}

func TestService_LikePost_notFound(t *testing.T) {
	s := newService(t)

	assert.ErrorIs(t, s.LikePost(ctx, "bob", 404), storage.ErrNotFound)
}

func TestService_AddComment(t *testing.T) {
	s := newService(t)

	postID, err := s.CreatePost(ctx, "alice", "post", "")
	require.NoError(t, err)

	commentID, err := s.AddComment(ctx, "bob", postID, "first!")
	require.NoError(t, err)
	assert.EqualValues(t, 1, commentID)

	comments, err := s.ListComments(ctx, postID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].Owner)

	// commenter earns the comment reward
	bob, err := s.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, bob.TotalRewards.Cmp(big.NewInt(2)))
}

func TestService_AddComment_errors(t *testing.T) {
	s := newService(t)

	_, err := s.AddComment(ctx, "bob", 404, "void")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	postID, err := s.CreatePost(ctx, "alice", "post", "")
	require.NoError(t, err)

	_, err = s.AddComment(ctx, "bob", postID, "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestService_Follow(t *testing.T) {
	s := newService(t)

	require.NoError(t, s.Follow(ctx, "bob", "alice"))
	// idempotent
	require.NoError(t, s.Follow(ctx, "bob", "alice"))

	followers, err := s.GetFollowers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, followers)

	assert.ErrorIs(t, s.Follow(ctx, "bob", "bob"), service.ErrInvalidInput)
}

func TestService_Unfollow(t *testing.T) {
	s := newService(t)

	assert.ErrorIs(t, s.Unfollow(ctx, "bob", "alice"), service.ErrNotFollowing)

	require.NoError(t, s.Follow(ctx, "bob", "alice"))
	require.NoError(t, s.Unfollow(ctx, "bob", "alice"))

	following, err := s.GetFollowing(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestService_GetMyProfile_createsLazily(t *testing.T) {
	s := newService(t)

	u, err := s.GetMyProfile(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", u.Address)

	// visible to plain lookups afterwards
	_, err = s.GetProfile(ctx, "fresh")
	require.NoError(t, err)
}

func TestService_UpdateProfile(t *testing.T) {
	s := newService(t)

	require.NoError(t, s.UpdateProfile(ctx, "alice", &service.UpdateProfileParams{
		Username: "Alice",
		Bio:      "ledger enjoyer",
		Location: "mainnet",
		Website:  "https://alice.example",
	}))

	u, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)
	assert.Equal(t, "ledger enjoyer", u.Bio)
}

func TestService_TransferTokens(t *testing.T) {
	s := newService(t)

	// alice earns 10 by posting
	_, err := s.CreatePost(ctx, "alice", "earning", "")
	require.NoError(t, err)

	require.NoError(t, s.TransferTokens(ctx, "alice", "bob", big.NewInt(4)))

	alice, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	bob, err := s.GetProfile(ctx, "bob")
	require.NoError(t, err)

	// zero-sum move, lifetime rewards untouched
	assert.Zero(t, alice.TokenBalance.Cmp(big.NewInt(6)))
	assert.Zero(t, bob.TokenBalance.Cmp(big.NewInt(4)))
	assert.Zero(t, alice.TotalRewards.Cmp(big.NewInt(10)))
	assert.Zero(t, bob.TotalRewards.Sign())
}

func TestService_TransferTokens_policyErrors(t *testing.T) {
	s := newService(t)

	_, err := s.CreatePost(ctx, "alice", "earning", "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.TransferTokens(ctx, "alice", "bob", big.NewInt(0)), service.ErrInvalidInput)
	assert.ErrorIs(t, s.TransferTokens(ctx, "alice", "bob", big.NewInt(-1)), service.ErrInvalidInput)
	assert.ErrorIs(t, s.TransferTokens(ctx, "alice", "alice", big.NewInt(1)), service.ErrInvalidInput)
	assert.ErrorIs(t, s.TransferTokens(ctx, "alice", "bob", big.NewInt(100)), storage.ErrInsufficientFunds)

	// a failed transfer does not create the recipient
	_, err = s.GetProfile(ctx, "bob")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// and the sender keeps everything
	alice, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, alice.TokenBalance.Cmp(big.NewInt(10)))
}

func TestService_tokenConservation(t *testing.T) {
	s := newService(t)

	_, err := s.CreatePost(ctx, "alice", "a", "")
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, "bob", "b", "")
	require.NoError(t, err)

	sum := func() *big.Int {
		users, err := s.GetLeaderboard(ctx, -1)
		require.NoError(t, err)

		total := new(big.Int)
		for _, u := range users {
			total.Add(total, u.TokenBalance)
		}
		return total
	}

	before := sum()

	require.NoError(t, s.TransferTokens(ctx, "alice", "bob", big.NewInt(7)))
	require.NoError(t, s.TransferTokens(ctx, "bob", "carol", big.NewInt(3)))

	assert.Zero(t, before.Cmp(sum()))
}

func TestService_MintNFT(t *testing.T) {
	s := newService(t)

	id, err := s.MintNFT(ctx, "alice", "ipfs://badge")
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	_, err = s.MintNFT(ctx, "alice", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	nfts, err := s.GetMyNFTs(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, nfts, 1)

	n, err := s.GetNFT(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://badge", n.Metadata)

	_, err = s.GetNFT(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_GetLeaderboard(t *testing.T) {
	s := newService(t)

	_, err := s.CreatePost(ctx, "alice", "one", "")
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, "alice", "two", "")
	require.NoError(t, err)

	id, err := s.CreatePost(ctx, "bob", "three", "")
	require.NoError(t, err)
	require.NoError(t, s.LikePost(ctx, "alice", id))

	// alice 20, bob 15
	out, err := s.GetLeaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "alice", out[0].Address)
}

func TestService_GetTrendingHashtags(t *testing.T) {
	s := newService(t)

	_, err := s.CreatePost(ctx, "alice", "#ICP #ICP #Web3", "")
	require.NoError(t, err)

	out, err := s.GetTrendingHashtags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "#ICP", out[0].Tag)
	assert.EqualValues(t, 2, out[0].Count)
}

func TestService_GetStats(t *testing.T) {
	s := newService(t)

	_, err := s.CreatePost(ctx, "alice", "post", "")
	require.NoError(t, err)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalPosts)
}

func TestService_SeedDemoData(t *testing.T) {
	s := newService(t)

	seeded, err := s.SeedDemoData(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.NotZero(t, stats.TotalUsers)
	assert.NotZero(t, stats.TotalPosts)
	assert.NotZero(t, stats.TotalNFTs)

	tags, err := s.GetTrendingHashtags(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, tags)

	// idempotent
	seeded, err = s.SeedDemoData(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	after, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats, after)
}
