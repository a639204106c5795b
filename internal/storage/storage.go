// Package storage contains a storage interface.
package storage

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/chainfeed/chainfeed/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = fmt.Errorf("not found")

// ErrInsufficientFunds is returned by TransferTokens when the sender's
// balance is less than the requested amount.
var ErrInsufficientFunds = fmt.Errorf("insufficient funds")

// Storage provides methods for interacting with the ledger.
//
// Every method serializes on the ledger's single writer lock; InTx holds the
// lock across f, so multi-step mutations observe and apply state atomically.
type Storage interface {
	InTx(ctx context.Context, f func(s Storage) error) error

	GetProfile(ctx context.Context, address string) (*entities.User, error)
	ListProfiles(ctx context.Context) ([]*entities.User, error)
	EnsureProfile(ctx context.Context, address string, at time.Time) (*entities.User, error)
	SetProfile(ctx context.Context, p *SetProfileParams) error

	CreatePost(ctx context.Context, p *CreatePostParams) (uint64, error)
	GetPost(ctx context.Context, id uint64) (*entities.Post, error)
	ListPosts(ctx context.Context, p *ListPostsParams) ([]*entities.Post, error)
	AddLike(ctx context.Context, id uint64) error
	AddPostReward(ctx context.Context, id uint64, amount *big.Int) error

	CreateComment(ctx context.Context, p *CreateCommentParams) (uint64, error)
	ListComments(ctx context.Context, postID uint64) ([]*entities.Comment, error)

	CreateNFT(ctx context.Context, p *CreateNFTParams) (uint64, error)
	GetNFT(ctx context.Context, id uint64) (*entities.NFT, error)
	ListNFTs(ctx context.Context, owner string) ([]*entities.NFT, error)

	Follow(ctx context.Context, follower, followee string) (bool, error)
	Unfollow(ctx context.Context, follower, followee string) (bool, error)
	GetFollowers(ctx context.Context, address string) ([]string, error)
	GetFollowing(ctx context.Context, address string) ([]string, error)

	AddTokens(ctx context.Context, address string, amount *big.Int, reward bool) error
	TransferTokens(ctx context.Context, from, to string, amount *big.Int) error

	GetStats(ctx context.Context) (*entities.PlatformStats, error)
	MarkSeeded(ctx context.Context) (bool, error)
}

// SetProfileParams ...
type SetProfileParams struct {
	Address   string
	Username  string
	Bio       string
	Location  string
	Website   string
	CreatedAt time.Time
}

// CreatePostParams ...
type CreatePostParams struct {
	Owner     string
	Content   string
	MediaURL  string
	CreatedAt time.Time
}

// ListPostsParams ...
type ListPostsParams struct {
	Owner *string
	Limit uint32
}

// CreateCommentParams ...
type CreateCommentParams struct {
	PostID    uint64
	Owner     string
	Content   string
	CreatedAt time.Time
}

// CreateNFTParams ...
type CreateNFTParams struct {
	Owner     string
	Metadata  string
	CreatedAt time.Time
}
