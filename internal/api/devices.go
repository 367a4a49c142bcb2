package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/iotmock/internal/device"
)

// registerDeviceRequest is the request body for POST /devices/register.
type registerDeviceRequest struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// deleteDeviceRequest is the request body for DELETE /devices/delete.
type deleteDeviceRequest struct {
	UUID string `json:"uuid"`
}

// statusResponse is the response body for GET /devices/status.
type statusResponse struct {
	Status     device.Status `json:"status"`
	LastChange string        `json:"lastChange"`
}

// handleRegisterDevice registers a device owned by the authenticated account.
//
// Re-registering an existing uuid is idempotent: the call succeeds but the
// existing device keeps its owner, name, and history. Ownership is never
// reassigned, even when the caller differs from the original owner.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UUID == "" || req.Name == "" {
		writeBadRequest(w, "uuid and name are required")
		return
	}

	dev := &device.Device{
		UUID:       req.UUID,
		Name:       req.Name,
		OwnerEmail: user.Email,
	}

	err := s.devices.Create(r.Context(), dev)
	switch {
	case errors.Is(err, device.ErrDeviceExists):
		// Idempotent success, no state change and no event.
	case err != nil:
		s.logger.Error("register device failed", "error", err, "uuid", req.UUID)
		writeInternalError(w, "failed to register device")
		return
	default:
		s.logger.Info("device registered", "uuid", dev.UUID, "owner", dev.OwnerEmail)
		s.hub.Broadcast(EventDeviceRegistered, dev)
		s.hub.Broadcast(EventStatusRecorded, map[string]any{
			"uuid":      dev.UUID,
			"status":    device.StatusOff,
			"timestamp": dev.CreatedAt,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Successfully registered"})
}

// handleDeviceStatus returns the current status of an owned device:
// the last element of its history.
func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	uuid := r.URL.Query().Get("uuid")
	if uuid == "" {
		writeBadRequest(w, "uuid query parameter is required")
		return
	}

	if !s.ownsDevice(w, r, user.Email, uuid) {
		return
	}

	latest, err := s.ledger.Latest(r.Context(), uuid)
	if err != nil {
		if errors.Is(err, device.ErrHistoryNotFound) {
			writeNotFound(w, "no history for device")
			return
		}
		s.logger.Error("latest status failed", "error", err, "uuid", uuid)
		writeInternalError(w, "failed to read status")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:     latest.Status,
		LastChange: latest.Timestamp.UTC().Format(time.RFC3339),
	})
}

// handleDevices serves GET /devices with exactly one of two query modes:
//
//   - ?uuid=  — the full status history of one owned device
//   - ?email= — the caller's devices, each with its latest status
//
// Providing neither parameter is a 400.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if uuid := r.URL.Query().Get("uuid"); uuid != "" {
		s.writeDeviceHistory(w, r, user.Email, uuid)
		return
	}

	if email := r.URL.Query().Get("email"); email != "" {
		// Listing someone else's devices would leak existence; the mock
		// reports nothing beyond the caller's own scope.
		if email != user.Email {
			writeNotFound(w, "device not found")
			return
		}
		s.writeOwnerSummaries(w, r, email)
		return
	}

	writeBadRequest(w, "uuid or email query parameter is required")
}

// handleDeleteDevice removes an owned device and its entire history.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req deleteDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UUID == "" {
		writeBadRequest(w, "uuid is required")
		return
	}

	if !s.ownsDevice(w, r, user.Email, req.UUID) {
		return
	}

	if err := s.devices.Delete(r.Context(), req.UUID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("delete device failed", "error", err, "uuid", req.UUID)
		writeInternalError(w, "failed to delete device")
		return
	}

	s.logger.Info("device deleted", "uuid", req.UUID, "owner", user.Email)
	s.hub.Broadcast(EventDeviceDeleted, map[string]any{"uuid": req.UUID})

	writeJSON(w, http.StatusOK, map[string]any{})
}

// ownsDevice verifies the device exists and belongs to ownerEmail. A device
// owned by someone else is reported as not found, identically to a device
// that does not exist, so callers cannot probe foreign uuids.
// On failure the response has already been written and false is returned.
func (s *Server) ownsDevice(w http.ResponseWriter, r *http.Request, ownerEmail, uuid string) bool {
	dev, err := s.devices.GetByUUID(r.Context(), uuid)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return false
		}
		s.logger.Error("device lookup failed", "error", err, "uuid", uuid)
		writeInternalError(w, "failed to look up device")
		return false
	}

	if dev.OwnerEmail != ownerEmail {
		writeNotFound(w, "device not found")
		return false
	}
	return true
}

// writeDeviceHistory responds with the full status history of an owned device.
func (s *Server) writeDeviceHistory(w http.ResponseWriter, r *http.Request, ownerEmail, uuid string) {
	if !s.ownsDevice(w, r, ownerEmail, uuid) {
		return
	}

	history, err := s.ledger.History(r.Context(), uuid)
	if err != nil {
		if errors.Is(err, device.ErrHistoryNotFound) {
			writeNotFound(w, "no history for device")
			return
		}
		s.logger.Error("history query failed", "error", err, "uuid", uuid)
		writeInternalError(w, "failed to read history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// writeOwnerSummaries responds with all of an owner's devices and their
// latest status, in registration order.
func (s *Server) writeOwnerSummaries(w http.ResponseWriter, r *http.Request, ownerEmail string) {
	devices, err := s.devices.ListByOwner(r.Context(), ownerEmail)
	if err != nil {
		s.logger.Error("list devices failed", "error", err, "owner", ownerEmail)
		writeInternalError(w, "failed to list devices")
		return
	}

	summaries := make([]device.Summary, 0, len(devices))
	for _, dev := range devices {
		latest, err := s.ledger.Latest(r.Context(), dev.UUID)
		if err != nil {
			s.logger.Error("latest status failed", "error", err, "uuid", dev.UUID)
			writeInternalError(w, "failed to read status")
			return
		}
		summaries = append(summaries, device.Summary{
			UUID:       dev.UUID,
			Name:       dev.Name,
			Status:     latest.Status,
			LastChange: latest.Timestamp,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": summaries})
}
