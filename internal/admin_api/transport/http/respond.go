package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	invdomain "github.com/voiceops/teamsadmin/internal/inventory_service/domain"
	provdomain "github.com/voiceops/teamsadmin/internal/provisioning_service/domain"
	syncdomain "github.com/voiceops/teamsadmin/internal/sync_service/domain"
	tenantdomain "github.com/voiceops/teamsadmin/internal/tenant_service/domain"
	userdomain "github.com/voiceops/teamsadmin/internal/user_service/domain"
)

// paginationParams reads offset/limit query params with sane bounds.
func paginationParams(r *http.Request) (offset, limit int) {
	offset = queryInt(r, "offset", 0)
	limit = queryInt(r, "limit", 50)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return offset, limit
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithDomainError maps sentinel domain errors onto HTTP statuses.
// Anything unrecognized is a 502 when it came from a remote system call
// path and a 500 otherwise; callers pick via fallback.
func respondWithDomainError(w http.ResponseWriter, err error, fallback int) {
	var batchErr *provdomain.BatchValidationError

	switch {
	case errors.Is(err, invdomain.ErrNotFound),
		errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, provdomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, invdomain.ErrDuplicateLineURI),
		errors.Is(err, tenantdomain.ErrDuplicateTenantName),
		errors.Is(err, provdomain.ErrDuplicateName):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, invdomain.ErrLineURIEmpty),
		errors.Is(err, invdomain.ErrLineURIMissingPrefix),
		errors.Is(err, invdomain.ErrLineURIMissingPlus),
		errors.Is(err, invdomain.ErrLineURIBadDigits),
		errors.Is(err, invdomain.ErrLineURITooShort),
		errors.Is(err, tenantdomain.ErrUnknownCredentialKind),
		errors.Is(err, provdomain.ErrEmptyBatch),
		errors.As(err, &batchErr):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tenantdomain.ErrSecretNotSet):
		respondWithError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, syncdomain.ErrSyncInProgress):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, syncdomain.ErrNoPendingSync),
		errors.Is(err, syncdomain.ErrUnknownSelection):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, syncdomain.ErrRemoteTimeout):
		respondWithError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, userdomain.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, userdomain.ErrUserInactive):
		respondWithError(w, http.StatusForbidden, err.Error())
	default:
		respondWithError(w, fallback, err.Error())
	}
}
