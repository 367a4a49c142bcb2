package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/iotmock/internal/account"
)

// updateProfileRequest is the request body for PUT /user/me.
// Absent or empty fields leave the stored values unchanged.
type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	TimeZone  string `json:"timeZone"`
}

// handleGetMe returns the authenticated account.
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

// handleUpdateMe applies a partial profile update to the authenticated account.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), user.ID, account.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		TimeZone:  req.TimeZone,
	})
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("update profile failed", "error", err, "user_id", user.ID)
		writeInternalError(w, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
