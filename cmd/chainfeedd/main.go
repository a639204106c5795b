package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chainfeed/chainfeed/internal/server"
	"github.com/chainfeed/chainfeed/internal/service"
	"github.com/chainfeed/chainfeed/internal/service/impl"
	"github.com/chainfeed/chainfeed/internal/storage/inmemory"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host string `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port int    `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on"`

	RequestTimeout time.Duration `long:"http.request_timeout" env:"HTTP_REQUEST_TIMEOUT" default:"45s" description:"request processing timeout"`

	PostReward    uint64 `long:"reward.post" env:"REWARD_POST" default:"10" description:"tokens issued to the author per post"`
	LikeReward    uint64 `long:"reward.like" env:"REWARD_LIKE" default:"5" description:"tokens issued to the post author per like"`
	CommentReward uint64 `long:"reward.comment" env:"REWARD_COMMENT" default:"2" description:"tokens issued to the commenter per comment"`

	SnapshotPath          string        `long:"snapshot.path" env:"SNAPSHOT_PATH" description:"ledger snapshot file, empty disables persistence"`
	SnapshotFlushInterval time.Duration `long:"snapshot.flush_interval" env:"SNAPSHOT_FLUSH_INTERVAL" default:"1m" description:"interval between periodic snapshot flushes"`

	TrendingCacheTTL time.Duration `long:"trending.cache_ttl" env:"TRENDING_CACHE_TTL" default:"10s" description:"trending hashtags recompute interval, 0 disables caching"`

	SeedDemoData bool `long:"demo.seed" env:"DEMO_SEED" description:"seed demo data on start"`

	LogLevel string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Chainfeed"
	parser.LongDescription = "Chainfeed social-network ledger service"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	logrus.Infof("%+v", opts)

	store := inmemory.New()

	if opts.SnapshotPath != "" {
		restoreSnapshot(store)
	}

	svc := impl.New(store, service.Rewards{
		Post:    new(big.Int).SetUint64(opts.PostReward),
		Like:    new(big.Int).SetUint64(opts.LikeReward),
		Comment: new(big.Int).SetUint64(opts.CommentReward),
	})

	if opts.SeedDemoData {
		if _, err := svc.SeedDemoData(context.Background()); err != nil {
			logrus.WithError(err).Fatal("failed to seed demo data")
		}
	}

	r := chi.NewMux()
	server.SetupRouter(svc, r, opts.RequestTimeout, opts.TrendingCacheTTL)

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	ctx, cancel := context.WithCancel(context.Background())

	gr, _ := errgroup.WithContext(ctx)
	gr.Go(srv.ListenAndServe)
	gr.Go(func() error {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		return srv.Shutdown(shutdownCtx)
	})

	if opts.SnapshotPath != "" {
		gr.Go(func() error {
			ticker := time.NewTicker(opts.SnapshotFlushInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					flushSnapshot(store)
					return nil
				case <-ticker.C:
					flushSnapshot(store)
				}
			}
		})
	}

	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		s := <-sigs

		logrus.Infof("terminating by %s signal", s)

		cancel()

		return errTerminated
	})

	logrus.Info("service started")

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
}

func restoreSnapshot(store *inmemory.Store) {
	f, err := os.Open(opts.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Info("no snapshot found, starting with an empty ledger")
			return
		}
		logrus.WithError(err).Fatal("failed to open snapshot")
	}
	defer f.Close()

	if err := store.Restore(f); err != nil {
		logrus.WithError(err).Fatal("failed to restore snapshot")
	}

	logrus.Info("ledger restored from snapshot")
}

func flushSnapshot(store *inmemory.Store) {
	tmp := opts.SnapshotPath + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		logrus.WithError(err).Error("failed to create snapshot file")
		return
	}

	if err := store.Dump(f); err != nil {
		logrus.WithError(err).Error("failed to dump snapshot")
		f.Close()
		return
	}

	if err := f.Close(); err != nil {
		logrus.WithError(err).Error("failed to close snapshot file")
		return
	}

	// rename is atomic, a crash mid-flush never corrupts the previous snapshot
	if err := os.Rename(tmp, opts.SnapshotPath); err != nil {
		logrus.WithError(err).Error("failed to replace snapshot")
	}
}
