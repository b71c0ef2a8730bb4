package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ideabridge.org/internal/audit"
	"ideabridge.org/internal/auth"
	"ideabridge.org/internal/market"
	"ideabridge.org/internal/obs"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// handleStoreError maps store sentinels onto HTTP statuses.
func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, market.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, detail(err, market.ErrInvalidInput))
	case errors.Is(err, market.ErrEmptyContent):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrBadCredentials):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, market.ErrNotOwner):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, r, http.StatusForbidden, detail(err, ErrForbidden))
	case errors.Is(err, market.ErrNotFound):
		writeError(w, r, http.StatusNotFound, detail(err, market.ErrNotFound))
	case errors.Is(err, ErrConflict):
		writeError(w, r, http.StatusConflict, detail(err, ErrConflict))
	case errors.Is(err, market.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, detail(err, market.ErrInvalidTransition))
	default:
		obs.Logger().Error("unhandled store error",
			zap.String("request_id", audit.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// detail strips the "sentinel: " prefix so clients see only the specific message.
func detail(err, sentinel error) string {
	msg := err.Error()
	if trimmed, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return trimmed
	}
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// decodeOptionalJSON treats an empty body as the zero value.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	err := decodeJSON(w, r, dst)
	if err != nil && err.Error() == "request body is required" {
		return nil
	}
	return err
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := mux.Vars(r)[key]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return id, nil
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
