package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/user-profile-svc/internal/usecase"
)

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateProfile")
	defer span.End()

	var req createProfileRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.profileService.Create(ctx, usecase.ProfileInput{
		ProfileID: req.ProfileID,
		Name:      req.Name,
		Region:    req.Region,
		Company:   req.Company,
		Bio:       req.Bio,
		Hobbies:   req.Hobbies,
		Interests: req.Interests,
		Age:       req.Age,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create profile failed", "profile_id", req.ProfileID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, profileToDTO(ctx, created))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProfile")
	defer span.End()

	profileID := strings.TrimSpace(r.PathValue("profileID"))
	found, err := h.profileService.Get(ctx, profileID)
	if err != nil {
		h.logger.WarnContext(ctx, "get profile failed", "profile_id", profileID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(ctx, found))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateProfile")
	defer span.End()

	profileID := strings.TrimSpace(r.PathValue("profileID"))
	var req updateProfileRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.profileService.Update(ctx, profileID, req.ExpectedVersion, usecase.ProfileInput{
		Name:      req.Name,
		Region:    req.Region,
		Company:   req.Company,
		Bio:       req.Bio,
		Hobbies:   req.Hobbies,
		Interests: req.Interests,
		Age:       req.Age,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update profile failed", "profile_id", profileID, "expected_version", req.ExpectedVersion, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(ctx, updated))
}

func (h *Handler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertProfile")
	defer span.End()

	profileID := strings.TrimSpace(r.PathValue("profileID"))
	var req upsertProfileRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	saved, err := h.profileService.Upsert(ctx, profileID, usecase.ProfileInput{
		Name:      req.Name,
		Region:    req.Region,
		Company:   req.Company,
		Bio:       req.Bio,
		Hobbies:   req.Hobbies,
		Interests: req.Interests,
		Age:       req.Age,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert profile failed", "profile_id", profileID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(ctx, saved))
}

// DeleteProfile removes a profile. With expected_version in the body the
// delete is strictly conditional; without a body the current version is read
// and used, retrying benign races.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteProfile")
	defer span.End()

	profileID := strings.TrimSpace(r.PathValue("profileID"))

	var req deleteProfileRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	var err error
	if req.ExpectedVersion > 0 {
		err = h.profileService.Delete(ctx, profileID, req.ExpectedVersion)
	} else {
		err = h.profileService.Remove(ctx, profileID)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "delete profile failed", "profile_id", profileID, "expected_version", req.ExpectedVersion, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"profile_id": profileID, "status": "deleted"})
}
