package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	mm "github.com/chainfeed/chainfeed/internal/middleware"
	"github.com/chainfeed/chainfeed/internal/service"
	"github.com/chainfeed/chainfeed/internal/storage"
)

var errInvalidRequest = errors.New("invalid request")

// policyError reports whether err belongs to the internal taxonomy that the
// external contract flattens into success=false.
func policyError(err error) bool {
	return errors.Is(err, service.ErrInvalidInput) ||
		errors.Is(err, service.ErrNotFollowing) ||
		errors.Is(err, storage.ErrInsufficientFunds) ||
		errors.Is(err, storage.ErrNotFound)
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Posts CreatePost
	//
	// Create a post owned by the caller and return its id.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   schema:
	//     "$ref": "#/definitions/CreatePostRequest"
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/CreatedResponse"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req CreatePostRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := s.s.CreatePost(r.Context(), caller, req.Content, req.MediaURL)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "empty content")
			return
		}
		writeInternalError(r.Context(), w, "failed to create post: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, CreatedResponse{ID: id})
}

func (s server) listPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts Posts ListPosts
	//
	// Return all posts in creation order.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Post"

	posts, err := s.s.ListPosts(r.Context())
	if err != nil {
		writeInternalError(r.Context(), w, "failed to list posts: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPIPosts(posts))
}

func (s server) likePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/likes Posts LikePost
	//
	// Add a like to the post. Likes are cumulative, not de-duplicated.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/SuccessResponse"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	id, err := extractID(r)
	if err != nil {
		writeSuccess(w, false)
		return
	}

	if err := s.s.LikePost(r.Context(), caller, id); err != nil {
		if policyError(err) {
			writeSuccess(w, false)
			return
		}
		writeInternalError(r.Context(), w, "failed to like post: "+err.Error())
		return
	}

	writeSuccess(w, true)
}

func (s server) addComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/comments Posts AddComment
	//
	// Append a comment to the post and return the comment id.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/CreatedResponse"
	//   '404':
	//     description: post not found

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	id, err := extractID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	var req AddCommentRequest
	if !decode(w, r, &req) {
		return
	}

	commentID, err := s.s.AddComment(r.Context(), caller, id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "post not found")
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "empty content")
		default:
			writeInternalError(r.Context(), w, "failed to add comment: "+err.Error())
		}
		return
	}

	writeOK(w, http.StatusOK, CreatedResponse{ID: commentID})
}

func (s server) listComments(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{id}/comments Posts ListComments
	//
	// Return the post's comments in creation order.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Comment"
	//   '404':
	//     description: post not found

	id, err := extractID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	comments, err := s.s.ListComments(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeInternalError(r.Context(), w, "failed to list comments: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPIComments(comments))
}

func (s server) follow(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /profiles/{address}/followers Profiles Follow
	//
	// Follow the target. Repeated follows are successful no-ops.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/SuccessResponse"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	target := chi.URLParam(r, "address")
	if target == "" {
		writeSuccess(w, false)
		return
	}

	if err := s.s.Follow(r.Context(), caller, target); err != nil {
		if policyError(err) {
			writeSuccess(w, false)
			return
		}
		writeInternalError(r.Context(), w, "failed to follow: "+err.Error())
		return
	}

	writeSuccess(w, true)
}

func (s server) unfollow(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /profiles/{address}/followers Profiles Unfollow
	//
	// Unfollow the target. Reports success=false if there was no edge.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/SuccessResponse"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	target := chi.URLParam(r, "address")
	if target == "" {
		writeSuccess(w, false)
		return
	}

	if err := s.s.Unfollow(r.Context(), caller, target); err != nil {
		if policyError(err) {
			writeSuccess(w, false)
			return
		}
		writeInternalError(r.Context(), w, "failed to unfollow: "+err.Error())
		return
	}

	writeSuccess(w, true)
}

func (s server) getFollowers(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{address}/followers Profiles GetFollowers

	s.writeEdges(w, r, s.s.GetFollowers)
}

func (s server) getFollowing(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{address}/following Profiles GetFollowing

	s.writeEdges(w, r, s.s.GetFollowing)
}

func (s server) getMyProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/me Profiles GetMyProfile
	//
	// Return the caller's profile, creating it on first fetch.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/Profile"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	u, err := s.s.GetMyProfile(r.Context(), caller)
	if err != nil {
		writeInternalError(r.Context(), w, "failed to get profile: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPIProfile(u))
}

func (s server) getProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{address} Profiles GetProfile
	//
	// Return the profile, or 404 if the address was never seen.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/Profile"
	//   '404':
	//     description: profile not found

	address := chi.URLParam(r, "address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	u, err := s.s.GetProfile(r.Context(), address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeInternalError(r.Context(), w, "failed to get profile: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPIProfile(u))
}

func (s server) updateProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /profiles/me Profiles UpdateProfile
	//
	// Update the caller's profile fields, creating the profile if absent.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/SuccessResponse"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	if err := s.s.UpdateProfile(r.Context(), caller, &service.UpdateProfileParams{
		Username: req.Username,
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
	}); err != nil {
		if policyError(err) {
			writeSuccess(w, false)
			return
		}
		writeInternalError(r.Context(), w, "failed to update profile: "+err.Error())
		return
	}

	writeSuccess(w, true)
}

func (s server) transferTokens(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /tokens/transfers Tokens TransferTokens
	//
	// Transfer tokens from the caller to the recipient. The response boolean
	// is the only failure signal: insufficient balance, bad amount and
	// self-transfer all surface as success=false.
	//
	// ---
	// parameters:
	// - name: request
	//   in: body
	//   schema:
	//     "$ref": "#/definitions/TransferTokensRequest"
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/SuccessResponse"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req TransferTokensRequest
	if !decode(w, r, &req) {
		return
	}

	if req.To == "" {
		writeSuccess(w, false)
		return
	}

	if err := s.s.TransferTokens(r.Context(), caller, req.To, req.Amount); err != nil {
		if policyError(err) {
			writeSuccess(w, false)
			return
		}
		writeInternalError(r.Context(), w, "failed to transfer tokens: "+err.Error())
		return
	}

	writeSuccess(w, true)
}

func (s server) mintNFT(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /nfts NFTs MintNFT
	//
	// Mint an NFT owned by the caller and return its id.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/CreatedResponse"

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req MintNFTRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := s.s.MintNFT(r.Context(), caller, req.Metadata)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "empty metadata")
			return
		}
		writeInternalError(r.Context(), w, "failed to mint nft: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, CreatedResponse{ID: id})
}

func (s server) getMyNFTs(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /nfts/my NFTs GetMyNFTs

	caller, ok := s.caller(w, r)
	if !ok {
		return
	}

	nfts, err := s.s.GetMyNFTs(r.Context(), caller)
	if err != nil {
		writeInternalError(r.Context(), w, "failed to list nfts: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPINFTs(nfts))
}

func (s server) getNFT(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /nfts/{id} NFTs GetNFT
	//
	// Return the NFT, or 404 if the id is absent.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/NFT"
	//   '404':
	//     description: nft not found

	id, err := extractID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid nft id")
		return
	}

	n, err := s.s.GetNFT(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "nft not found")
			return
		}
		writeInternalError(r.Context(), w, "failed to get nft: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPINFT(n))
}

func (s server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /leaderboard Rankings GetLeaderboard
	//
	// Return the top users by lifetime rewards.
	//
	// ---
	// parameters:
	// - name: limit
	//   in: query
	//   required: false
	//   default: 10
	//   maximum: 100
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Profile"

	limit, err := extractLimit(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := s.s.GetLeaderboard(r.Context(), limit)
	if err != nil {
		writeInternalError(r.Context(), w, "failed to get leaderboard: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPIProfiles(users))
}

func (s server) getTrendingHashtags(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /hashtags/trending Rankings GetTrendingHashtags
	//
	// Return the most frequent hashtags across all post content.
	//
	// ---
	// parameters:
	// - name: limit
	//   in: query
	//   required: false
	//   default: 10
	//   maximum: 100
	// responses:
	//   '200':
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Hashtag"

	limit, err := extractLimit(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tags, err := s.s.GetTrendingHashtags(r.Context(), limit)
	if err != nil {
		writeInternalError(r.Context(), w, "failed to get trending hashtags: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, toAPIHashtags(tags))
}

func (s server) getStats(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /stats Rankings GetStats
	//
	// Return platform cardinalities, computed freshly per call.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/StatsResponse"

	stats, err := s.s.GetStats(r.Context())
	if err != nil {
		writeInternalError(r.Context(), w, "failed to get stats: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, StatsResponse{
		TotalUsers:    stats.TotalUsers,
		TotalPosts:    stats.TotalPosts,
		TotalComments: stats.TotalComments,
		TotalNFTs:     stats.TotalNFTs,
	})
}

func (s server) seedDemoData(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /demo Demo SeedDemoData
	//
	// Populate the ledger with demo content. Returns seeded=false when the
	// ledger already holds it.
	//
	// ---
	// responses:
	//   '200':
	//     schema:
	//       "$ref": "#/definitions/SeedResponse"

	seeded, err := s.s.SeedDemoData(r.Context())
	if err != nil {
		writeInternalError(r.Context(), w, "failed to seed demo data: "+err.Error())
		return
	}

	writeOK(w, http.StatusOK, SeedResponse{Seeded: seeded})
}

func (s server) writeEdges(w http.ResponseWriter, r *http.Request,
	f func(ctx context.Context, address string) ([]string, error)) {
	address := chi.URLParam(r, "address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	out, err := f(r.Context(), address)
	if err != nil {
		writeInternalError(r.Context(), w, "failed to list edges: "+err.Error())
		return
	}

	if out == nil {
		out = []string{}
	}

	writeOK(w, http.StatusOK, out)
}

// caller resolves the identity attached by the middleware; mutating and
// "my"-scoped handlers refuse anonymous requests.
func (s server) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, ok := mm.Caller(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity required")
		return "", false
	}

	return caller, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidRequest.Error())
		return false
	}

	return true
}

func extractID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func extractLimit(q url.Values) (int, error) {
	limit := defaultLimit

	if s := q.Get("limit"); s != "" {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, errors.New("failed to parse limit")
		}

		if v > maxLimit {
			return 0, errors.New("limit is too big")
		}

		limit = int(v)
	}

	return limit, nil
}
