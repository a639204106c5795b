package impl

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/chainfeed/chainfeed/internal/storage"
)

var log = logrus.WithField("package", "impl")

type demoPost struct {
	owner   string
	content string
	media   string
	likes   []string
}

var demoPosts = []demoPost{
	{
		owner:   "demo-alice",
		content: "Just deployed my first canister! #ICP #Web3",
		likes:   []string{"demo-bob", "demo-carol"},
	},
	{
		owner:   "demo-bob",
		content: "Exploring on-chain social graphs #ICP",
		media:   "https://demo.chainfeed.dev/graph.png",
		likes:   []string{"demo-alice"},
	},
	{
		owner:   "demo-carol",
		content: "gm everyone #Web3 #NFT",
	},
}

// SeedDemoData populates the ledger with a small interconnected corpus so
// the leaderboard and trending views return something out of the box.
// Idempotent: a second call returns false and changes nothing.
func (s *srv) SeedDemoData(ctx context.Context) (bool, error) {
	seeded := false

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		fresh, err := tx.MarkSeeded(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark seeded: %w", err)
		}
		if !fresh {
			return nil
		}
		seeded = true

		seedSrv := &srv{s: noTx{tx}, rewards: s.rewards, now: s.now}

		for _, p := range demoPosts {
			id, err := seedSrv.CreatePost(ctx, p.owner, p.content, p.media)
			if err != nil {
				return fmt.Errorf("failed to seed post: %w", err)
			}

			for _, liker := range p.likes {
				if err := seedSrv.LikePost(ctx, liker, id); err != nil {
					return fmt.Errorf("failed to seed like: %w", err)
				}
			}
		}

		if err := seedSrv.Follow(ctx, "demo-bob", "demo-alice"); err != nil {
			return fmt.Errorf("failed to seed follow: %w", err)
		}
		if err := seedSrv.Follow(ctx, "demo-carol", "demo-alice"); err != nil {
			return fmt.Errorf("failed to seed follow: %w", err)
		}

		if _, err := seedSrv.MintNFT(ctx, "demo-alice", "ipfs://demo/genesis-badge"); err != nil {
			return fmt.Errorf("failed to seed nft: %w", err)
		}

		return nil
	}); err != nil {
		return false, err
	}

	if seeded {
		log.Info("demo data seeded")
	}

	return seeded, nil
}

// noTx wraps a storage view that already holds the writer lock, turning the
// nested InTx calls the service methods make into plain callbacks.
type noTx struct {
	storage.Storage
}

func (n noTx) InTx(_ context.Context, f func(s storage.Storage) error) error {
	return f(n.Storage)
}
