package inmemory

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/chainfeed/chainfeed/internal/entities"
)

const snapshotVersion = 1

// Ledger snapshot DTOs. Token amounts are decimal strings so snapshots stay
// valid regardless of magnitude.

type snapshotDTO struct {
	Version int `json:"version"`

	Users    []userDTO    `json:"users"`
	Posts    []postDTO    `json:"posts"`
	Comments []commentDTO `json:"comments"`
	NFTs     []nftDTO     `json:"nfts"`

	Following map[string][]string `json:"following"`

	LastPostID    uint64 `json:"last_post_id"`
	LastCommentID uint64 `json:"last_comment_id"`
	LastNFTID     uint64 `json:"last_nft_id"`

	Seeded bool `json:"seeded"`
}

type userDTO struct {
	Address      string    `json:"address"`
	Username     string    `json:"username"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	Website      string    `json:"website"`
	TokenBalance string    `json:"token_balance"`
	TotalRewards string    `json:"total_rewards"`
	PostsCount   uint64    `json:"posts_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type postDTO struct {
	ID        uint64    `json:"id"`
	Owner     string    `json:"owner"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"media_url"`
	Likes     uint64    `json:"likes"`
	Rewards   string    `json:"rewards"`
	CreatedAt time.Time `json:"created_at"`
}

type commentDTO struct {
	ID        uint64    `json:"id"`
	PostID    uint64    `json:"post_id"`
	Owner     string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type nftDTO struct {
	ID        uint64    `json:"id"`
	Owner     string    `json:"owner"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// Dump writes the whole ledger to w. It takes the writer lock, so the
// snapshot is a consistent point-in-time view.
func (s *Store) Dump(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := snapshotDTO{
		Version:       snapshotVersion,
		Users:         make([]userDTO, 0, len(s.l.users)),
		Posts:         make([]postDTO, 0, len(s.l.postOrder)),
		Comments:      make([]commentDTO, 0, len(s.l.commentOrder)),
		NFTs:          make([]nftDTO, 0, len(s.l.nftOrder)),
		Following:     s.l.following,
		LastPostID:    s.l.lastPostID,
		LastCommentID: s.l.lastCommentID,
		LastNFTID:     s.l.lastNFTID,
		Seeded:        s.l.seeded,
	}

	for _, u := range s.l.users {
		out.Users = append(out.Users, userDTO{
			Address:      u.Address,
			Username:     u.Username,
			Bio:          u.Bio,
			Location:     u.Location,
			Website:      u.Website,
			TokenBalance: u.TokenBalance.String(),
			TotalRewards: u.TotalRewards.String(),
			PostsCount:   u.PostsCount,
			CreatedAt:    u.CreatedAt,
		})
	}

	for _, id := range s.l.postOrder {
		p := s.l.posts[id]
		out.Posts = append(out.Posts, postDTO{
			ID:        p.ID,
			Owner:     p.Owner,
			Content:   p.Content,
			MediaURL:  p.MediaURL,
			Likes:     p.Likes,
			Rewards:   p.Rewards.String(),
			CreatedAt: p.CreatedAt,
		})
	}

	for _, id := range s.l.commentOrder {
		c := s.l.comments[id]
		out.Comments = append(out.Comments, commentDTO{
			ID:        c.ID,
			PostID:    c.PostID,
			Owner:     c.Owner,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}

	for _, id := range s.l.nftOrder {
		n := s.l.nfts[id]
		out.NFTs = append(out.NFTs, nftDTO{
			ID:        n.ID,
			Owner:     n.Owner,
			Metadata:  n.Metadata,
			CreatedAt: n.CreatedAt,
		})
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return nil
}

// Restore replaces the ledger with the snapshot read from r.
func (s *Store) Restore(r io.Reader) error {
	var in snapshotDTO
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if in.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", in.Version)
	}

	l := ledger{
		users:         make(map[string]*entities.User, len(in.Users)),
		posts:         make(map[uint64]*entities.Post, len(in.Posts)),
		comments:      make(map[uint64]*entities.Comment, len(in.Comments)),
		nfts:          make(map[uint64]*entities.NFT, len(in.NFTs)),
		followers:     make(map[string][]string),
		following:     make(map[string][]string),
		lastPostID:    in.LastPostID,
		lastCommentID: in.LastCommentID,
		lastNFTID:     in.LastNFTID,
		seeded:        in.Seeded,
	}

	for _, u := range in.Users {
		balance, err := parseAmount(u.TokenBalance)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Address, err)
		}
		rewards, err := parseAmount(u.TotalRewards)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Address, err)
		}

		l.users[u.Address] = &entities.User{
			Address:      u.Address,
			Username:     u.Username,
			Bio:          u.Bio,
			Location:     u.Location,
			Website:      u.Website,
			TokenBalance: balance,
			TotalRewards: rewards,
			PostsCount:   u.PostsCount,
			CreatedAt:    u.CreatedAt,
		}
	}

	for _, p := range in.Posts {
		rewards, err := parseAmount(p.Rewards)
		if err != nil {
			return fmt.Errorf("post %d: %w", p.ID, err)
		}

		l.posts[p.ID] = &entities.Post{
			ID:        p.ID,
			Owner:     p.Owner,
			Content:   p.Content,
			MediaURL:  p.MediaURL,
			Likes:     p.Likes,
			Rewards:   rewards,
			CreatedAt: p.CreatedAt,
		}
		l.postOrder = append(l.postOrder, p.ID)
	}

	for _, c := range in.Comments {
		l.comments[c.ID] = &entities.Comment{
			ID:        c.ID,
			PostID:    c.PostID,
			Owner:     c.Owner,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		}
		l.commentOrder = append(l.commentOrder, c.ID)
	}

	for _, n := range in.NFTs {
		l.nfts[n.ID] = &entities.NFT{
			ID:        n.ID,
			Owner:     n.Owner,
			Metadata:  n.Metadata,
			CreatedAt: n.CreatedAt,
		}
		l.nftOrder = append(l.nftOrder, n.ID)
	}

	for follower, followees := range in.Following {
		for _, followee := range followees {
			l.following[follower] = append(l.following[follower], followee)
			l.followers[followee] = append(l.followers[followee], follower)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	*s.l = l

	return nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}

	return v, nil
}
