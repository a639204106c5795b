// Package impl is implementation of service interface.
package impl

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/chainfeed/chainfeed/internal/entities"
	"github.com/chainfeed/chainfeed/internal/ranking"
	"github.com/chainfeed/chainfeed/internal/service"
	"github.com/chainfeed/chainfeed/internal/storage"
)

type srv struct {
	s       storage.Storage
	rewards service.Rewards

	now func() time.Time
}

// New creates new instance of service.
func New(s storage.Storage, rewards service.Rewards) service.Service {
	return &srv{
		s:       s,
		rewards: rewards,
		now:     time.Now,
	}
}

func (s *srv) CreatePost(ctx context.Context, caller, content, mediaURL string) (uint64, error) {
	if content == "" {
		return 0, fmt.Errorf("%w: empty content", service.ErrInvalidInput)
	}

	var id uint64

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.EnsureProfile(ctx, caller, s.now()); err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		var err error
		id, err = tx.CreatePost(ctx, &storage.CreatePostParams{
			Owner:     caller,
			Content:   content,
			MediaURL:  mediaURL,
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}

		if s.rewards.Post.Sign() > 0 {
			if err := tx.AddTokens(ctx, caller, s.rewards.Post, true); err != nil {
				return fmt.Errorf("failed to issue post reward: %w", err)
			}
		}

		return nil
	}); err != nil {
		return 0, err
	}

	return id, nil
}

func (s *srv) ListPosts(ctx context.Context) ([]*entities.Post, error) {
	posts, err := s.s.ListPosts(ctx, &storage.ListPostsParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

// LikePost increments the like counter and issues the like reward to the post
// author. Likes are not de-duplicated: every call counts.
func (s *srv) LikePost(ctx context.Context, caller string, postID uint64) error {
	return s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.EnsureProfile(ctx, caller, s.now()); err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		post, err := tx.GetPost(ctx, postID)
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}

		if err := tx.AddLike(ctx, postID); err != nil {
			return fmt.Errorf("failed to add like: %w", err)
		}

		if s.rewards.Like.Sign() > 0 {
			if err := tx.AddTokens(ctx, post.Owner, s.rewards.Like, true); err != nil {
				return fmt.Errorf("failed to issue like reward: %w", err)
			}
			if err := tx.AddPostReward(ctx, postID, s.rewards.Like); err != nil {
				return fmt.Errorf("failed to accrue post reward: %w", err)
			}
		}

		return nil
	})
}

func (s *srv) AddComment(ctx context.Context, caller string, postID uint64, content string) (uint64, error) {
	if content == "" {
		return 0, fmt.Errorf("%w: empty content", service.ErrInvalidInput)
	}

	var id uint64

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.EnsureProfile(ctx, caller, s.now()); err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		var err error
		id, err = tx.CreateComment(ctx, &storage.CreateCommentParams{
			PostID:    postID,
			Owner:     caller,
			Content:   content,
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		if s.rewards.Comment.Sign() > 0 {
			if err := tx.AddTokens(ctx, caller, s.rewards.Comment, true); err != nil {
				return fmt.Errorf("failed to issue comment reward: %w", err)
			}
		}

		return nil
	}); err != nil {
		return 0, err
	}

	return id, nil
}

func (s *srv) ListComments(ctx context.Context, postID uint64) ([]*entities.Comment, error) {
	comments, err := s.s.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// Follow uses set semantics: a repeated follow is a successful no-op.
// Self-follow is rejected.
func (s *srv) Follow(ctx context.Context, caller, target string) error {
	if caller == target {
		return fmt.Errorf("%w: self-follow", service.ErrInvalidInput)
	}

	return s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.EnsureProfile(ctx, caller, s.now()); err != nil {
			return fmt.Errorf("failed to ensure follower profile: %w", err)
		}
		if _, err := tx.EnsureProfile(ctx, target, s.now()); err != nil {
			return fmt.Errorf("failed to ensure followee profile: %w", err)
		}

		if _, err := tx.Follow(ctx, caller, target); err != nil {
			return fmt.Errorf("failed to follow: %w", err)
		}

		return nil
	})
}

// Unfollow reports ErrNotFollowing when the edge does not exist.
func (s *srv) Unfollow(ctx context.Context, caller, target string) error {
	if caller == target {
		return fmt.Errorf("%w: self-unfollow", service.ErrInvalidInput)
	}

	return s.s.InTx(ctx, func(tx storage.Storage) error {
		removed, err := tx.Unfollow(ctx, caller, target)
		if err != nil {
			return fmt.Errorf("failed to unfollow: %w", err)
		}

		if !removed {
			return service.ErrNotFollowing
		}

		return nil
	})
}

func (s *srv) GetFollowers(ctx context.Context, address string) ([]string, error) {
	out, err := s.s.GetFollowers(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}

	return out, nil
}

func (s *srv) GetFollowing(ctx context.Context, address string) ([]string, error) {
	out, err := s.s.GetFollowing(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}

	return out, nil
}

// GetMyProfile creates the caller's profile on first fetch.
func (s *srv) GetMyProfile(ctx context.Context, caller string) (*entities.User, error) {
	var u *entities.User

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		var err error
		u, err = tx.EnsureProfile(ctx, caller, s.now())
		if err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *srv) GetProfile(ctx context.Context, address string) (*entities.User, error) {
	u, err := s.s.GetProfile(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return u, nil
}

func (s *srv) UpdateProfile(ctx context.Context, caller string, p *service.UpdateProfileParams) error {
	if err := s.s.SetProfile(ctx, &storage.SetProfileParams{
		Address:   caller,
		Username:  p.Username,
		Bio:       p.Bio,
		Location:  p.Location,
		Website:   p.Website,
		CreatedAt: s.now(),
	}); err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}

	return nil
}

// TransferTokens moves amount from caller to the recipient in one atomic
// step. The recipient is created on demand; self-transfer and non-positive
// amounts are rejected.
func (s *srv) TransferTokens(ctx context.Context, caller, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: non-positive amount", service.ErrInvalidInput)
	}

	if caller == to {
		return fmt.Errorf("%w: self-transfer", service.ErrInvalidInput)
	}

	return s.s.InTx(ctx, func(tx storage.Storage) error {
		sender, err := tx.GetProfile(ctx, caller)
		if err != nil {
			return fmt.Errorf("failed to get sender profile: %w", err)
		}

		// checked up front so a failing transfer does not even create
		// the recipient
		if sender.TokenBalance.Cmp(amount) < 0 {
			return storage.ErrInsufficientFunds
		}

		if _, err := tx.EnsureProfile(ctx, to, s.now()); err != nil {
			return fmt.Errorf("failed to ensure recipient profile: %w", err)
		}

		if err := tx.TransferTokens(ctx, caller, to, amount); err != nil {
			return fmt.Errorf("failed to transfer: %w", err)
		}

		return nil
	})
}

func (s *srv) MintNFT(ctx context.Context, caller, metadata string) (uint64, error) {
	if metadata == "" {
		return 0, fmt.Errorf("%w: empty metadata", service.ErrInvalidInput)
	}

	var id uint64

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		if _, err := tx.EnsureProfile(ctx, caller, s.now()); err != nil {
			return fmt.Errorf("failed to ensure profile: %w", err)
		}

		var err error
		id, err = tx.CreateNFT(ctx, &storage.CreateNFTParams{
			Owner:     caller,
			Metadata:  metadata,
			CreatedAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to create nft: %w", err)
		}

		return nil
	}); err != nil {
		return 0, err
	}

	return id, nil
}

func (s *srv) GetMyNFTs(ctx context.Context, caller string) ([]*entities.NFT, error) {
	out, err := s.s.ListNFTs(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to list nfts: %w", err)
	}

	return out, nil
}

func (s *srv) GetNFT(ctx context.Context, id uint64) (*entities.NFT, error) {
	n, err := s.s.GetNFT(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}

	return n, nil
}

func (s *srv) GetLeaderboard(ctx context.Context, n int) ([]*entities.User, error) {
	users, err := s.s.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return ranking.Leaderboard(users, n), nil
}

func (s *srv) GetTrendingHashtags(ctx context.Context, n int) ([]ranking.Hashtag, error) {
	posts, err := s.s.ListPosts(ctx, &storage.ListPostsParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return ranking.TrendingHashtags(posts, n), nil
}

func (s *srv) GetStats(ctx context.Context) (*entities.PlatformStats, error) {
	stats, err := s.s.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return stats, nil
}
