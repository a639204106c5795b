// Package server Chainfeed
//
// Chainfeed is a social-network ledger service which exposes posts, comments,
// likes, follows, token transfers, NFTs and read-side rankings over one
// request/response boundary.
//
//	Schemes: https
//	BasePath: /v1
//	Version: 1.0.0
//
//	Produces:
//	- application/json
//	Consumes:
//	- application/json
//
// swagger:meta
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/chainfeed/chainfeed/internal/metrics"
	mm "github.com/chainfeed/chainfeed/internal/middleware"
	"github.com/chainfeed/chainfeed/internal/service"
)

//go:generate swagger generate spec -t swagger -m -c . -o ../../static/swagger.json

const maxBodySize = 16 * 1024

var log = logrus.WithField("package", "server")

type server struct {
	s service.Service
}

// SetupRouter setups handlers to chi router.
func SetupRouter(svc service.Service, r chi.Router, timeout, trendingTTL time.Duration) {
	r.Use(
		loggerMiddleware,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		middleware.RequestSize(maxBodySize),
		metrics.Middleware,
		mm.Identity,
	)

	srv := server{
		s: svc,
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeOK(w, http.StatusOK, struct {
			Status string `json:"status"`
		}{Status: "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/posts", srv.createPost)
		r.Get("/posts", srv.listPosts)
		r.Post("/posts/{id}/likes", srv.likePost)
		r.Post("/posts/{id}/comments", srv.addComment)
		r.Get("/posts/{id}/comments", srv.listComments)

		r.Post("/profiles/{address}/followers", srv.follow)
		r.Delete("/profiles/{address}/followers", srv.unfollow)
		r.Get("/profiles/{address}/followers", srv.getFollowers)
		r.Get("/profiles/{address}/following", srv.getFollowing)

		r.Get("/profiles/me", srv.getMyProfile)
		r.Put("/profiles/me", srv.updateProfile)
		r.Get("/profiles/{address}", srv.getProfile)

		r.Post("/tokens/transfers", srv.transferTokens)

		r.Post("/nfts", srv.mintNFT)
		r.Get("/nfts/my", srv.getMyNFTs)
		r.Get("/nfts/{id}", srv.getNFT)

		r.Get("/leaderboard", srv.getLeaderboard)
		r.Get("/hashtags/trending", mm.Cached(trendingTTL, srv.getTrendingHashtags))
		r.Get("/stats", srv.getStats)

		r.Post("/demo", srv.seedDemoData)
	})
}

func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("handled request")
	})
}

func writeOK(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Error{Error: message})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter, message string) {
	log.WithField("request_id", middleware.GetReqID(ctx)).Error(message)
	// the real error is logged only: the external contract never leaks internals
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeSuccess(w http.ResponseWriter, success bool) {
	writeOK(w, http.StatusOK, SuccessResponse{Success: success})
}
