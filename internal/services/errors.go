package services

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/store"
	"github.com/Lllllllleong/policedirectory/internal/upload"
)

// statusFor maps domain errors to HTTP status codes. An explicit
// httpx.StatusError wins.
func statusFor(err error) int {
	var se *httpx.StatusError
	var v directory.Violations
	switch {
	case errors.As(err, &se):
		return se.Code
	case errors.As(err, &v):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyReviewed):
		return http.StatusConflict
	case errors.Is(err, auth.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, auth.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, upload.ErrNoFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	httpx.WriteError(w, httpx.WithStatus(statusFor(err), err))
}

func badRequest(msg string) error {
	return httpx.Errorf(http.StatusBadRequest, "%s", msg)
}

// clientKey identifies the caller for rate limiting: the user email when
// given, otherwise the client IP.
func clientKey(r *http.Request, email string) string {
	if email = directory.NormalizeEmail(email); email != "" {
		return email
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func action(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("action"))
}
