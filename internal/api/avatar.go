package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nerrad567/iotmock/internal/account"
)

const (
	// uploadDirPermissions is the permission mode for the uploads directory.
	uploadDirPermissions = 0750

	// avatarFormField is the multipart field name carrying the file.
	avatarFormField = "avatar"
)

// handleUploadAvatar stores a multipart avatar file and records its public
// path on the authenticated account.
//
// The file contents are never inspected; the mock is a plain byte sink.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		writeBadRequest(w, "no file uploaded")
		return
	}
	defer file.Close() //nolint:errcheck // read-only temp file

	publicPath, err := s.storeUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("storing avatar failed", "error", err, "user_id", user.ID)
		writeInternalError(w, "failed to store avatar")
		return
	}

	updated, err := s.users.UpdateAvatar(r.Context(), user.ID, publicPath)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("update avatar failed", "error", err, "user_id", user.ID)
		writeInternalError(w, "failed to update avatar")
		return
	}

	s.logger.Info("avatar stored", "user_id", user.ID, "path", publicPath)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteAvatar clears the avatar path on the authenticated account.
// The stored file is left in place; the uploads directory is disposable.
func (s *Server) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	updated, err := s.users.UpdateAvatar(r.Context(), user.ID, "")
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("clear avatar failed", "error", err, "user_id", user.ID)
		writeInternalError(w, "failed to clear avatar")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// storeUpload writes the uploaded file under the uploads directory with a
// generated name and returns its public URL path.
func (s *Server) storeUpload(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(s.uploads.Dir, uploadDirPermissions); err != nil {
		return "", fmt.Errorf("creating uploads directory: %w", err)
	}

	name := "av-" + uuid.NewString() + filepath.Ext(originalName)
	dst, err := os.Create(filepath.Join(s.uploads.Dir, name))
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close() //nolint:errcheck // close error surfaced via Copy result below

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return s.uploads.PublicPath + "/" + name, nil
}
