package server

import (
	"math/big"

	"github.com/samber/lo"

	"github.com/chainfeed/chainfeed/internal/entities"
	"github.com/chainfeed/chainfeed/internal/ranking"
)

const maxLimit = 100
const defaultLimit = 10

// Error ...
// swagger:model
type Error struct {
	Error string `json:"error"`
}

// SuccessResponse is the boolean result shape shared by likePost, follow,
// unfollow, updateProfile and transferTokens.
// swagger:model
type SuccessResponse struct {
	Success bool `json:"success"`
}

// Post ...
type Post struct {
	ID        uint64   `json:"id"`
	Owner     string   `json:"owner"`
	Content   string   `json:"content"`
	MediaURL  string   `json:"media_url,omitempty"`
	Likes     uint64   `json:"likes"`
	Rewards   *big.Int `json:"rewards"`
	CreatedAt uint64   `json:"created_at"`
}

// Comment ...
type Comment struct {
	ID        uint64 `json:"id"`
	PostID    uint64 `json:"post_id"`
	Owner     string `json:"owner"`
	Content   string `json:"content"`
	CreatedAt uint64 `json:"created_at"`
}

// Profile ...
type Profile struct {
	Address      string   `json:"address"`
	Username     string   `json:"username"`
	Bio          string   `json:"bio"`
	Location     string   `json:"location"`
	Website      string   `json:"website"`
	TokenBalance *big.Int `json:"token_balance"`
	TotalRewards *big.Int `json:"total_rewards"`
	PostsCount   uint64   `json:"posts_count"`
	CreatedAt    uint64   `json:"created_at"`
}

// NFT ...
type NFT struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"`
	Metadata  string `json:"metadata"`
	CreatedAt uint64 `json:"created_at"`
}

// Hashtag ...
type Hashtag struct {
	Tag   string `json:"tag"`
	Count uint64 `json:"count"`
}

// CreatePostRequest ...
type CreatePostRequest struct {
	Content  string `json:"content"`
	MediaURL string `json:"media_url"`
}

// CreatedResponse carries the id assigned to a newly created entity.
// swagger:model
type CreatedResponse struct {
	ID uint64 `json:"id"`
}

// AddCommentRequest ...
type AddCommentRequest struct {
	Content string `json:"content"`
}

// UpdateProfileRequest ...
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Website  string `json:"website"`
}

// TransferTokensRequest ...
type TransferTokensRequest struct {
	To     string   `json:"to"`
	Amount *big.Int `json:"amount"`
}

// MintNFTRequest ...
type MintNFTRequest struct {
	Metadata string `json:"metadata"`
}

// SeedResponse ...
type SeedResponse struct {
	Seeded bool `json:"seeded"`
}

// StatsResponse ...
// swagger:model
type StatsResponse struct {
	TotalUsers    uint64 `json:"total_users"`
	TotalPosts    uint64 `json:"total_posts"`
	TotalComments uint64 `json:"total_comments"`
	TotalNFTs     uint64 `json:"total_nfts"`
}

func toAPIPost(p *entities.Post) Post {
	return Post{
		ID:        p.ID,
		Owner:     p.Owner,
		Content:   p.Content,
		MediaURL:  p.MediaURL,
		Likes:     p.Likes,
		Rewards:   p.Rewards,
		CreatedAt: uint64(p.CreatedAt.Unix()),
	}
}

func toAPIPosts(posts []*entities.Post) []Post {
	return lo.Map(posts, func(p *entities.Post, _ int) Post { return toAPIPost(p) })
}

func toAPIComments(comments []*entities.Comment) []Comment {
	return lo.Map(comments, func(c *entities.Comment, _ int) Comment {
		return Comment{
			ID:        c.ID,
			PostID:    c.PostID,
			Owner:     c.Owner,
			Content:   c.Content,
			CreatedAt: uint64(c.CreatedAt.Unix()),
		}
	})
}

func toAPIProfile(u *entities.User) Profile {
	return Profile{
		Address:      u.Address,
		Username:     u.Username,
		Bio:          u.Bio,
		Location:     u.Location,
		Website:      u.Website,
		TokenBalance: u.TokenBalance,
		TotalRewards: u.TotalRewards,
		PostsCount:   u.PostsCount,
		CreatedAt:    uint64(u.CreatedAt.Unix()),
	}
}

func toAPIProfiles(users []*entities.User) []Profile {
	return lo.Map(users, func(u *entities.User, _ int) Profile { return toAPIProfile(u) })
}

func toAPINFT(n *entities.NFT) NFT {
	return NFT{
		ID:        n.ID,
		Owner:     n.Owner,
		Metadata:  n.Metadata,
		CreatedAt: uint64(n.CreatedAt.Unix()),
	}
}

func toAPINFTs(nfts []*entities.NFT) []NFT {
	return lo.Map(nfts, func(n *entities.NFT, _ int) NFT { return toAPINFT(n) })
}

func toAPIHashtags(tags []ranking.Hashtag) []Hashtag {
	return lo.Map(tags, func(t ranking.Hashtag, _ int) Hashtag {
		return Hashtag{Tag: t.Tag, Count: t.Count}
	})
}
