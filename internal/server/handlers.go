package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	svcErr "github.com/emberdate/engine/internal/errors"
	"github.com/emberdate/engine/internal/repository"
	"github.com/emberdate/engine/internal/service/swipe"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type candidateBody struct {
	UserID        uint64   `json:"user_id"`
	Name          string   `json:"name"`
	Gender        string   `json:"gender"`
	Neighborhood  string   `json:"neighborhood,omitempty"`
	Bio           string   `json:"bio,omitempty"`
	Verified      bool     `json:"verified"`
	Tier          int      `json:"tier"`
	SuperlikedYou bool     `json:"superliked_you"`
	DistanceMiles *float64 `json:"distance_miles,omitempty"`
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, svcErr.InvalidArgument("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	result, err := s.services.Feed.GetCandidates(r.Context(), userID, limit)
	if err != nil {
		s.appCtx.Logger.Error("feed request failed", "user", userID, "err", err)
		writeError(w, err)
		return
	}

	candidates := make([]candidateBody, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		candidates = append(candidates, candidateBody{
			UserID:        c.Profile.UserID,
			Name:          c.Profile.Name,
			Gender:        c.Profile.Gender,
			Neighborhood:  c.Profile.Neighborhood,
			Bio:           c.Profile.Bio,
			Verified:      c.Profile.Verified,
			Tier:          int(c.Tier),
			SuperlikedYou: c.IncomingSuperlike,
			DistanceMiles: c.DistanceMiles,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates":   candidates,
		"queued_likes": result.QueuedLikes,
	})
}

type swipeRequest struct {
	UserID   uint64 `json:"user_id"`
	TargetID uint64 `json:"target_id"`
	Action   string `json:"action"`
	Message  string `json:"message,omitempty"`
}

func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, svcErr.InvalidArgument("malformed request body"))
		return
	}
	if req.UserID == 0 || req.TargetID == 0 {
		writeError(w, svcErr.InvalidArgument("user_id and target_id are required"))
		return
	}
	action, err := swipe.ParseAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.services.Swipe.Swipe(r.Context(), req.UserID, req.TargetID, action, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matched":  result.Matched,
		"match_id": result.MatchID,
	})
}

type rewindRequest struct {
	UserID uint64 `json:"user_id"`
}

func (s *Server) handleRewind(w http.ResponseWriter, r *http.Request) {
	var req rewindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		writeError(w, svcErr.InvalidArgument("user_id is required"))
		return
	}

	profile, err := s.services.Rewind.Rewind(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":      profile.UserID,
		"name":         profile.Name,
		"gender":       profile.Gender,
		"neighborhood": profile.Neighborhood,
		"bio":          profile.Bio,
	})
}

func (s *Server) handleAdmirers(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var token *string
	if v := r.URL.Query().Get("page_token"); v != "" {
		token = &v
	}

	page, err := s.services.Admirers.List(r.Context(), userID, token)
	if err != nil {
		writeError(w, err)
		return
	}

	type admirerBody struct {
		LikerID   uint64 `json:"liker_id"`
		Superlike bool   `json:"superlike"`
		LikedAt   int64  `json:"liked_at_unix_ms"`
	}
	admirerList := make([]admirerBody, 0, len(page.Admirers))
	for _, a := range page.Admirers {
		admirerList = append(admirerList, admirerBody{
			LikerID:   a.LikerID,
			Superlike: a.Superlike,
			LikedAt:   a.LikedAt.UnixMilli(),
		})
	}
	resp := map[string]any{"admirers": admirerList}
	if page.NextToken != nil {
		resp["next_page_token"] = *page.NextToken
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdmirerCount(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := s.services.Admirers.Count(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	matches, err := repository.NewMatchRepository(s.appCtx.DB).ListForUser(r.Context(), userID, 100)
	if err != nil {
		writeError(w, err)
		return
	}

	type matchBody struct {
		MatchID   string `json:"match_id"`
		OtherID   uint64 `json:"other_user_id"`
		CreatedAt int64  `json:"created_at_unix_ms"`
	}
	matchList := make([]matchBody, 0, len(matches))
	for _, m := range matches {
		other := m.User1ID
		if other == userID {
			other = m.User2ID
		}
		matchList = append(matchList, matchBody{
			MatchID:   m.ID,
			OtherID:   other,
			CreatedAt: m.CreatedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matchList})
}

type blockRequest struct {
	UserID   uint64 `json:"user_id"`
	TargetID uint64 `json:"target_id"`
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 || req.TargetID == 0 {
		writeError(w, svcErr.InvalidArgument("user_id and target_id are required"))
		return
	}

	if err := s.services.Block.Block(r.Context(), req.UserID, req.TargetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

func (s *Server) handleBlockList(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ids, err := s.services.Block.ListBlockedBy(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocked": ids})
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	targetID, err := strconv.ParseUint(chi.URLParam(r, "targetID"), 10, 64)
	if err != nil || targetID == 0 {
		writeError(w, svcErr.InvalidArgument("targetID must be a valid uint64"))
		return
	}

	if err := s.services.Block.Unblock(r.Context(), userID, targetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

func queryUserID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument("user_id must be a valid uint64")
	}
	return id, nil
}
