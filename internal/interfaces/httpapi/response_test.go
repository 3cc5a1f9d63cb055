package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/user-profile-svc/internal/domain/migration"
	"github.com/riskibarqy/user-profile-svc/internal/domain/profile"
	"github.com/riskibarqy/user-profile-svc/internal/usecase"
)

func TestMapError(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name       string
		err        error
		httpStatus int
		reason     string
		status     string
	}{
		{"invalid input", fmt.Errorf("%w: name required", usecase.ErrInvalidInput), http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
		{"not found", profile.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
		{"duplicate key", profile.ErrDuplicateKey, http.StatusConflict, "alreadyExists", "ALREADY_EXISTS"},
		{"version conflict", profile.ErrVersionConflict, http.StatusConflict, "versionConflict", "FAILED_PRECONDITION"},
		{"exhausted retries", fmt.Errorf("%w: %w", profile.ErrConcurrencyExhausted, profile.ErrVersionConflict), http.StatusConflict, "concurrencyExhausted", "ABORTED"},
		{"storage unavailable", profile.ErrStorageUnavailable, http.StatusServiceUnavailable, "storageUnavailable", "UNAVAILABLE"},
		{"migration locked", migration.ErrMigrationLocked, http.StatusServiceUnavailable, "storageUnavailable", "UNAVAILABLE"},
		{"unknown revision", migration.ErrUnknownRevision, http.StatusBadRequest, "unknownRevision", "INVALID_ARGUMENT"},
		{"stale plan", migration.ErrStalePlan, http.StatusConflict, "schemaConflict", "FAILED_PRECONDITION"},
		{"diverged history", migration.ErrDivergedHistory, http.StatusConflict, "schemaConflict", "FAILED_PRECONDITION"},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError, "internalError", "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapError(ctx, tc.err)
			if mapped.HTTPStatus != tc.httpStatus {
				t.Fatalf("expected HTTP %d, got %d", tc.httpStatus, mapped.HTTPStatus)
			}
			if mapped.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, mapped.Reason)
			}
			if mapped.Status != tc.status {
				t.Fatalf("expected status %q, got %q", tc.status, mapped.Status)
			}
		})
	}
}

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected application/json, got %q", got)
	}

	var envelope struct {
		APIVersion string            `json:"apiVersion"`
		Data       map[string]string `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.APIVersion != "2.0" {
		t.Fatalf("expected apiVersion 2.0, got %q", envelope.APIVersion)
	}
	if envelope.Data["status"] != "ok" {
		t.Fatalf("unexpected data: %+v", envelope.Data)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: profile p-1", profile.ErrNotFound))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var envelope struct {
		Error *googleErrorBody `json:"error"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if envelope.Error == nil {
		t.Fatal("expected an error body")
	}
	if envelope.Error.Code != http.StatusNotFound || envelope.Error.Status != "NOT_FOUND" {
		t.Fatalf("unexpected error body: %+v", envelope.Error)
	}
	if len(envelope.Error.Errors) != 1 {
		t.Fatalf("expected one error item, got %+v", envelope.Error.Errors)
	}
	item := envelope.Error.Errors[0]
	if item.Domain != "user-profile-svc" || item.Reason != "notFound" {
		t.Fatalf("unexpected error item: %+v", item)
	}
}
