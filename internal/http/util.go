package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"nestcrm-data/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeError maps the domain error taxonomy to HTTP statuses. Denials stay
// generic so a caller cannot probe tenant existence.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, Fail("unauthenticated"))
	case errors.Is(err, domain.ErrDenied):
		writeJSON(w, http.StatusForbidden, Fail("access denied"))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("not found"))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeJSON(w, http.StatusConflict, Fail("quota exceeded"))
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, Fail("conflict"))
	default:
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}
