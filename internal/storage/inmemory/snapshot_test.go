package inmemory

import (
	"bytes"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainfeed/chainfeed/internal/storage"
)

func TestStore_snapshotRoundtrip(t *testing.T) {
	s := newStoreWithUsers(t, "alice", "bob")

	postID := createPost(t, s, "alice", "hello #ICP")
	require.NoError(t, s.AddLike(ctx, postID))
	require.NoError(t, s.AddPostReward(ctx, postID, big.NewInt(5)))
	require.NoError(t, s.AddTokens(ctx, "alice", big.NewInt(15), true))

	_, err := s.CreateComment(ctx, &storage.CreateCommentParams{PostID: postID, Owner: "bob", Content: "gm"})
	require.NoError(t, err)

	_, err = s.CreateNFT(ctx, &storage.CreateNFTParams{Owner: "bob", Metadata: "ipfs://x"})
	require.NoError(t, err)

	_, err = s.Follow(ctx, "bob", "alice")
	require.NoError(t, err)

	_, err = s.MarkSeeded(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Dump(&buf))

	restored := New()
	require.NoError(t, restored.Restore(&buf))

	alice, err := restored.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, alice.TokenBalance.Cmp(big.NewInt(15)))
	assert.Zero(t, alice.TotalRewards.Cmp(big.NewInt(15)))
	assert.EqualValues(t, 1, alice.PostsCount)

	post, err := restored.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "hello #ICP", post.Content)
	assert.EqualValues(t, 1, post.Likes)
	assert.Zero(t, post.Rewards.Cmp(big.NewInt(5)))

	comments, err := restored.ListComments(ctx, postID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	followers, err := restored.GetFollowers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, followers)

	nfts, err := restored.ListNFTs(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, nfts, 1)

	// seeded flag survives, so demo data is not duplicated after restart
	fresh, err := restored.MarkSeeded(ctx)
	require.NoError(t, err)
	assert.False(t, fresh)

	// id counters survive too
	next := createPost(t, restored, "alice", "next")
	assert.Equal(t, postID+1, next)
}

func TestStore_Restore_badVersion(t *testing.T) {
	err := New().Restore(strings.NewReader(`{"version": 99}`))
	assert.Error(t, err)
}

func TestStore_Restore_badAmount(t *testing.T) {
	in := `{"version":1,"users":[{"address":"a","token_balance":"x","total_rewards":"0"}]}`
	err := New().Restore(strings.NewReader(in))
	assert.Error(t, err)

	in = `{"version":1,"users":[{"address":"a","token_balance":"-5","total_rewards":"0"}]}`
	err = New().Restore(strings.NewReader(in))
	assert.Error(t, err)
}
