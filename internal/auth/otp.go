package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

const OTPExpiry = 10 * time.Minute

// ResetWindow bounds how long after OTP verification a forgotten PIN can
// be replaced.
const ResetWindow = 5 * time.Minute

var (
	ErrOTPMismatch = errors.New("invalid OTP")
	ErrOTPExpired  = errors.New("OTP has expired")
	ErrOTPUsed     = errors.New("OTP already used")
)

// GenerateOTP returns a uniformly random six digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// NewOTPRequest builds the pending record for email.
func NewOTPRequest(email, code string, now time.Time) models.OTPRequest {
	return models.OTPRequest{
		Email:     email,
		Code:      code,
		Status:    models.OTPPending,
		CreatedAt: now,
		ExpiresAt: now.Add(OTPExpiry),
	}
}

// CheckOTP validates code against a stored request at time now.
func CheckOTP(req models.OTPRequest, code string, now time.Time) error {
	if subtle.ConstantTimeCompare([]byte(req.Code), []byte(code)) != 1 {
		return ErrOTPMismatch
	}
	if req.Status == models.OTPUsed || req.Status == models.OTPSpent {
		return ErrOTPUsed
	}
	if !req.ExpiresAt.IsZero() && req.ExpiresAt.Before(now) {
		return ErrOTPExpired
	}
	return nil
}

// AllowsPinReset reports whether req was verified recently enough to
// authorize a forgot-PIN reset at time now.
func AllowsPinReset(req models.OTPRequest, now time.Time) bool {
	if req.Status != models.OTPUsed || req.UsedAt.IsZero() {
		return false
	}
	return !req.UsedAt.After(now) && now.Sub(req.UsedAt) <= ResetWindow
}
