// Package inmemory is implementation of storage interface.
//
// The ledger is a single in-memory authority guarded by one mutex: every
// primitive serializes on it and InTx holds it across the callback, so calls
// run to completion one at a time.
package inmemory

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/chainfeed/chainfeed/internal/entities"
	"github.com/chainfeed/chainfeed/internal/storage"
)

var errNestedTx = errors.New("can not run InTx within tx")

type ledger struct {
	users     map[string]*entities.User
	posts     map[uint64]*entities.Post
	postOrder []uint64

	comments     map[uint64]*entities.Comment
	commentOrder []uint64

	nfts     map[uint64]*entities.NFT
	nftOrder []uint64

	// adjacency kept both directions, creation order
	followers map[string][]string
	following map[string][]string

	lastPostID    uint64
	lastCommentID uint64
	lastNFTID     uint64

	seeded bool
}

// Store implements storage.Storage over an owned in-memory ledger.
type Store struct {
	mu *sync.Mutex
	l  *ledger
	tx bool
}

// New creates new instance of Store.
func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		l: &ledger{
			users:     make(map[string]*entities.User),
			posts:     make(map[uint64]*entities.Post),
			comments:  make(map[uint64]*entities.Comment),
			nfts:      make(map[uint64]*entities.NFT),
			followers: make(map[string][]string),
			following: make(map[string][]string),
		},
	}
}

// lockUnlessTx serializes the call on the ledger writer lock. Calls made
// through the view passed to an InTx callback already hold it.
func (s *Store) lockUnlessTx() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) InTx(ctx context.Context, f func(s storage.Storage) error) error {
	if s.tx {
		return errNestedTx
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return f(&Store{mu: s.mu, l: s.l, tx: true})
}

func (s *Store) GetProfile(ctx context.Context, address string) (*entities.User, error) {
	defer s.lockUnlessTx()()

	u, ok := s.l.users[address]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return copyUser(u), nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]*entities.User, error) {
	defer s.lockUnlessTx()()

	out := make([]*entities.User, 0, len(s.l.users))
	for _, u := range s.l.users {
		out = append(out, copyUser(u))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })

	return out, nil
}

func (s *Store) EnsureProfile(ctx context.Context, address string, at time.Time) (*entities.User, error) {
	defer s.lockUnlessTx()()

	u, ok := s.l.users[address]
	if !ok {
		u = &entities.User{
			Address:      address,
			TokenBalance: new(big.Int),
			TotalRewards: new(big.Int),
			CreatedAt:    at.UTC(),
		}
		s.l.users[address] = u
	}

	return copyUser(u), nil
}

func (s *Store) SetProfile(ctx context.Context, p *storage.SetProfileParams) error {
	defer s.lockUnlessTx()()

	u, ok := s.l.users[p.Address]
	if !ok {
		u = &entities.User{
			Address:      p.Address,
			TokenBalance: new(big.Int),
			TotalRewards: new(big.Int),
			CreatedAt:    p.CreatedAt.UTC(),
		}
		s.l.users[p.Address] = u
	}

	u.Username = p.Username
	u.Bio = p.Bio
	u.Location = p.Location
	u.Website = p.Website

	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *storage.CreatePostParams) (uint64, error) {
	defer s.lockUnlessTx()()

	owner, ok := s.l.users[p.Owner]
	if !ok {
		return 0, storage.ErrNotFound
	}

	s.l.lastPostID++
	id := s.l.lastPostID

	s.l.posts[id] = &entities.Post{
		ID:        id,
		Owner:     p.Owner,
		Content:   p.Content,
		MediaURL:  p.MediaURL,
		Rewards:   new(big.Int),
		CreatedAt: p.CreatedAt.UTC(),
	}
	s.l.postOrder = append(s.l.postOrder, id)

	owner.PostsCount++

	return id, nil
}

func (s *Store) GetPost(ctx context.Context, id uint64) (*entities.Post, error) {
	defer s.lockUnlessTx()()

	p, ok := s.l.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return copyPost(p), nil
}

func (s *Store) ListPosts(ctx context.Context, p *storage.ListPostsParams) ([]*entities.Post, error) {
	defer s.lockUnlessTx()()

	out := make([]*entities.Post, 0, len(s.l.postOrder))
	for _, id := range s.l.postOrder {
		v := s.l.posts[id]

		if p.Owner != nil && v.Owner != *p.Owner {
			continue
		}

		out = append(out, copyPost(v))

		if p.Limit != 0 && uint32(len(out)) == p.Limit {
			break
		}
	}

	return out, nil
}

func (s *Store) AddLike(ctx context.Context, id uint64) error {
	defer s.lockUnlessTx()()

	p, ok := s.l.posts[id]
	if !ok {
		return storage.ErrNotFound
	}

	p.Likes++

	return nil
}

func (s *Store) AddPostReward(ctx context.Context, id uint64, amount *big.Int) error {
	defer s.lockUnlessTx()()

	p, ok := s.l.posts[id]
	if !ok {
		return storage.ErrNotFound
	}

	p.Rewards.Add(p.Rewards, amount)

	return nil
}

func (s *Store) CreateComment(ctx context.Context, p *storage.CreateCommentParams) (uint64, error) {
	defer s.lockUnlessTx()()

	if _, ok := s.l.posts[p.PostID]; !ok {
		return 0, storage.ErrNotFound
	}

	s.l.lastCommentID++
	id := s.l.lastCommentID

	s.l.comments[id] = &entities.Comment{
		ID:        id,
		PostID:    p.PostID,
		Owner:     p.Owner,
		Content:   p.Content,
		CreatedAt: p.CreatedAt.UTC(),
	}
	s.l.commentOrder = append(s.l.commentOrder, id)

	return id, nil
}

func (s *Store) ListComments(ctx context.Context, postID uint64) ([]*entities.Comment, error) {
	defer s.lockUnlessTx()()

	if _, ok := s.l.posts[postID]; !ok {
		return nil, storage.ErrNotFound
	}

	var out []*entities.Comment
	for _, id := range s.l.commentOrder {
		if c := s.l.comments[id]; c.PostID == postID {
			v := *c
			out = append(out, &v)
		}
	}

	return out, nil
}

func (s *Store) CreateNFT(ctx context.Context, p *storage.CreateNFTParams) (uint64, error) {
	defer s.lockUnlessTx()()

	if _, ok := s.l.users[p.Owner]; !ok {
		return 0, storage.ErrNotFound
	}

	s.l.lastNFTID++
	id := s.l.lastNFTID

	s.l.nfts[id] = &entities.NFT{
		ID:        id,
		Owner:     p.Owner,
		Metadata:  p.Metadata,
		CreatedAt: p.CreatedAt.UTC(),
	}
	s.l.nftOrder = append(s.l.nftOrder, id)

	return id, nil
}

func (s *Store) GetNFT(ctx context.Context, id uint64) (*entities.NFT, error) {
	defer s.lockUnlessTx()()

	n, ok := s.l.nfts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	v := *n
	return &v, nil
}

func (s *Store) ListNFTs(ctx context.Context, owner string) ([]*entities.NFT, error) {
	defer s.lockUnlessTx()()

	var out []*entities.NFT
	for _, id := range s.l.nftOrder {
		if n := s.l.nfts[id]; n.Owner == owner {
			v := *n
			out = append(out, &v)
		}
	}

	return out, nil
}

func (s *Store) Follow(ctx context.Context, follower, followee string) (bool, error) {
	defer s.lockUnlessTx()()

	if contains(s.l.following[follower], followee) {
		return false, nil
	}

	s.l.following[follower] = append(s.l.following[follower], followee)
	s.l.followers[followee] = append(s.l.followers[followee], follower)

	return true, nil
}

func (s *Store) Unfollow(ctx context.Context, follower, followee string) (bool, error) {
	defer s.lockUnlessTx()()

	if !contains(s.l.following[follower], followee) {
		return false, nil
	}

	s.l.following[follower] = remove(s.l.following[follower], followee)
	s.l.followers[followee] = remove(s.l.followers[followee], follower)

	return true, nil
}

func (s *Store) GetFollowers(ctx context.Context, address string) ([]string, error) {
	defer s.lockUnlessTx()()

	return append([]string(nil), s.l.followers[address]...), nil
}

func (s *Store) GetFollowing(ctx context.Context, address string) ([]string, error) {
	defer s.lockUnlessTx()()

	return append([]string(nil), s.l.following[address]...), nil
}

func (s *Store) AddTokens(ctx context.Context, address string, amount *big.Int, reward bool) error {
	defer s.lockUnlessTx()()

	u, ok := s.l.users[address]
	if !ok {
		return storage.ErrNotFound
	}

	u.TokenBalance.Add(u.TokenBalance, amount)
	if reward {
		u.TotalRewards.Add(u.TotalRewards, amount)
	}

	return nil
}

func (s *Store) TransferTokens(ctx context.Context, from, to string, amount *big.Int) error {
	defer s.lockUnlessTx()()

	sender, ok := s.l.users[from]
	if !ok {
		return storage.ErrNotFound
	}

	receiver, ok := s.l.users[to]
	if !ok {
		return storage.ErrNotFound
	}

	if sender.TokenBalance.Cmp(amount) < 0 {
		return storage.ErrInsufficientFunds
	}

	sender.TokenBalance.Sub(sender.TokenBalance, amount)
	receiver.TokenBalance.Add(receiver.TokenBalance, amount)

	return nil
}

func (s *Store) GetStats(ctx context.Context) (*entities.PlatformStats, error) {
	defer s.lockUnlessTx()()

	return &entities.PlatformStats{
		TotalUsers:    uint64(len(s.l.users)),
		TotalPosts:    uint64(len(s.l.posts)),
		TotalComments: uint64(len(s.l.comments)),
		TotalNFTs:     uint64(len(s.l.nfts)),
	}, nil
}

func (s *Store) MarkSeeded(ctx context.Context) (bool, error) {
	defer s.lockUnlessTx()()

	if s.l.seeded {
		return false, nil
	}
	s.l.seeded = true

	return true, nil
}

func copyUser(u *entities.User) *entities.User {
	v := *u
	v.TokenBalance = new(big.Int).Set(u.TokenBalance)
	v.TotalRewards = new(big.Int).Set(u.TotalRewards)
	return &v
}

func copyPost(p *entities.Post) *entities.Post {
	v := *p
	v.Rewards = new(big.Int).Set(p.Rewards)
	return &v
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

func remove(s []string, v string) []string {
	out := s[:0]
	for _, e := range s {
		if e != v {
			out = append(out, e)
		}
	}
	return out
}
