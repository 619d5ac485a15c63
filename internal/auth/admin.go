package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
)

var ErrNotAdmin = errors.New("admin access required")

// AdminLookup reports whether email is an active admin in the backing store.
type AdminLookup func(ctx context.Context, email string) (bool, error)

// AdminChecker accepts a static allowlist first and falls back to the store.
type AdminChecker struct {
	allow  map[string]struct{}
	lookup AdminLookup
}

func NewAdminChecker(allowlist []string, lookup AdminLookup) *AdminChecker {
	allow := make(map[string]struct{}, len(allowlist))
	for _, e := range allowlist {
		allow[directory.NormalizeEmail(e)] = struct{}{}
	}
	return &AdminChecker{allow: allow, lookup: lookup}
}

func (c *AdminChecker) IsAdmin(ctx context.Context, email string) (bool, error) {
	email = directory.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	if _, ok := c.allow[email]; ok {
		return true, nil
	}
	if c.lookup == nil {
		return false, nil
	}
	ok, err := c.lookup(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to verify admin %s: %w", email, err)
	}
	return ok, nil
}

// Require returns a 400/403 StatusError unless email belongs to an admin.
func (c *AdminChecker) Require(ctx context.Context, email string) error {
	if directory.NormalizeEmail(email) == "" {
		return httpx.Errorf(http.StatusBadRequest, "Missing user email")
	}
	ok, err := c.IsAdmin(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.WithStatus(http.StatusForbidden, fmt.Errorf("%w: %s", ErrNotAdmin, email))
	}
	return nil
}
