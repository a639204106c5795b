// Package entities contains main entities of service.
package entities

import (
	"math/big"
	"time"
)

// User is a platform participant, keyed by the opaque address supplied
// by the identity layer. Created lazily on first interaction.
type User struct {
	Address      string
	Username     string
	Bio          string
	Location     string
	Website      string
	TokenBalance *big.Int
	TotalRewards *big.Int
	PostsCount   uint64
	CreatedAt    time.Time
}

// Post ...
type Post struct {
	ID        uint64
	Owner     string
	Content   string
	MediaURL  string
	Likes     uint64
	Rewards   *big.Int
	CreatedAt time.Time
}

// Comment ...
type Comment struct {
	ID        uint64
	PostID    uint64
	Owner     string
	Content   string
	CreatedAt time.Time
}

// NFT ...
type NFT struct {
	ID        uint64
	Owner     string
	Metadata  string
	CreatedAt time.Time
}

// PlatformStats holds ledger cardinalities, computed freshly per call.
type PlatformStats struct {
	TotalUsers    uint64
	TotalPosts    uint64
	TotalComments uint64
	TotalNFTs     uint64
}
