// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"
	"math/big"

	"github.com/chainfeed/chainfeed/internal/entities"
	"github.com/chainfeed/chainfeed/internal/ranking"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// ErrInvalidInput is returned for empty content, non-positive amounts,
// self-follow and self-transfer.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotFollowing is returned by Unfollow when the edge does not exist.
var ErrNotFollowing = errors.New("not following")

// Rewards is the token issuance schedule. Amounts per action are
// configuration, not invariants.
type Rewards struct {
	Post    *big.Int
	Like    *big.Int
	Comment *big.Int
}

// Service is the single entry point for every exposed operation. The caller
// argument is the opaque identity resolved by the gateway; the service trusts
// it per call.
type Service interface {
	CreatePost(ctx context.Context, caller, content, mediaURL string) (uint64, error)
	ListPosts(ctx context.Context) ([]*entities.Post, error)
	LikePost(ctx context.Context, caller string, postID uint64) error
	AddComment(ctx context.Context, caller string, postID uint64, content string) (uint64, error)
	ListComments(ctx context.Context, postID uint64) ([]*entities.Comment, error)

	Follow(ctx context.Context, caller, target string) error
	Unfollow(ctx context.Context, caller, target string) error
	GetFollowers(ctx context.Context, address string) ([]string, error)
	GetFollowing(ctx context.Context, address string) ([]string, error)

	GetMyProfile(ctx context.Context, caller string) (*entities.User, error)
	GetProfile(ctx context.Context, address string) (*entities.User, error)
	UpdateProfile(ctx context.Context, caller string, p *UpdateProfileParams) error

	TransferTokens(ctx context.Context, caller, to string, amount *big.Int) error

	MintNFT(ctx context.Context, caller, metadata string) (uint64, error)
	GetMyNFTs(ctx context.Context, caller string) ([]*entities.NFT, error)
	GetNFT(ctx context.Context, id uint64) (*entities.NFT, error)

	GetLeaderboard(ctx context.Context, n int) ([]*entities.User, error)
	GetTrendingHashtags(ctx context.Context, n int) ([]ranking.Hashtag, error)
	GetStats(ctx context.Context) (*entities.PlatformStats, error)

	SeedDemoData(ctx context.Context) (bool, error)
}

// UpdateProfileParams ...
type UpdateProfileParams struct {
	Username string
	Bio      string
	Location string
	Website  string
}
