package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/mailer"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

const otpRequestsPerHour = 5

// AuthAPIFunction handles email OTP login and PIN changes.
type AuthAPIFunction struct {
	employees store.Employees
	otps      store.OTPs
	mail      mailer.Mailer
	limiter   *auth.Limiter
	now       func() time.Time
}

func NewAuthAPI(ctx context.Context) (*AuthAPIFunction, error) {
	m, err := mailer.NewSMTPMailer(mailer.Config{
		Host:     gcp.GetEnv("SMTP_HOST", ""),
		Port:     gcp.GetEnvInt("SMTP_PORT", 587),
		Username: gcp.GetEnv("SMTP_USER", ""),
		Password: gcp.GetEnv("SMTP_PASS", ""),
		From:     gcp.GetEnv("MAIL_FROM", ""),
	})
	if err != nil {
		return nil, err
	}
	clients, err := newGoogleClients(ctx)
	if err != nil {
		return nil, err
	}
	fs, err := clients.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	repos := store.NewFirestoreSet(fs)
	slog.Info("Auth API initialized.")
	return NewAuthAPIWith(repos.Employees, repos.OTPs, m), nil
}

func NewAuthAPIWith(employees store.Employees, otps store.OTPs, m mailer.Mailer) *AuthAPIFunction {
	return &AuthAPIFunction{
		employees: employees,
		otps:      otps,
		mail:      m,
		limiter:   auth.NewLimiter(otpRequestsPerHour, time.Hour),
		now:       time.Now,
	}
}

// authFailure is an error whose message is shown to the user verbatim.
func authFailure(status int, msg string) error {
	return httpx.Errorf(status, "%s", msg)
}

func (f *AuthAPIFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	var req models.AuthRequest
	if err := httpx.DecodeJSON(w, r, maxEmployeeBody, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		res *models.AuthResponse
		err error
	)
	switch action(r) {
	case "requestOtp":
		res, err = f.RequestOTP(r.Context(), req.Email)
	case "verifyOtp":
		res, err = f.VerifyOTP(r.Context(), req.Email, req.Code)
	case "updatePin":
		res, err = f.UpdatePin(r.Context(), req)
	default:
		err = badRequest("Invalid action")
	}
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			httpx.WriteError(w, err)
			return
		}
		httpx.JSON(w, status, models.AuthResponse{Success: false, Message: err.Error()})
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// RequestOTP emails a fresh code to an approved employee.
func (f *AuthAPIFunction) RequestOTP(ctx context.Context, email string) (*models.AuthResponse, error) {
	email = directory.NormalizeEmail(email)
	if email == "" {
		return nil, authFailure(http.StatusBadRequest, "Email is required")
	}
	if err := f.limiter.Allow(email); err != nil {
		return nil, authFailure(http.StatusTooManyRequests, "Too many OTP requests. Try again later.")
	}
	e, err := f.employees.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authFailure(http.StatusNotFound, "No account found with this email")
	}
	if err != nil {
		return nil, err
	}
	if !e.IsApproved {
		return nil, authFailure(http.StatusForbidden, "Account not approved yet")
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return nil, err
	}
	if err := f.otps.Put(ctx, auth.NewOTPRequest(email, code, f.now())); err != nil {
		return nil, err
	}
	if err := f.mail.SendOTP(ctx, email, code, auth.OTPExpiry); err != nil {
		return nil, fmt.Errorf("failed to send otp email: %w", err)
	}
	slog.Info("OTP issued.", "kgid", e.Kgid)
	return &models.AuthResponse{Success: true, Message: "OTP sent to your email"}, nil
}

// VerifyOTP consumes a code and returns the employee it logs in.
func (f *AuthAPIFunction) VerifyOTP(ctx context.Context, email, code string) (*models.AuthResponse, error) {
	email = directory.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, authFailure(http.StatusBadRequest, "Email and OTP code are required.")
	}

	req, err := f.otps.Get(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authFailure(http.StatusNotFound, "No OTP found for this email.")
	}
	if err != nil {
		return nil, err
	}
	switch err := auth.CheckOTP(req, code, f.now()); {
	case errors.Is(err, auth.ErrOTPMismatch):
		return nil, authFailure(http.StatusBadRequest, "Invalid OTP.")
	case errors.Is(err, auth.ErrOTPExpired):
		return nil, authFailure(http.StatusBadRequest, "OTP has expired.")
	case errors.Is(err, auth.ErrOTPUsed):
		return nil, authFailure(http.StatusBadRequest, "OTP has already been used.")
	case err != nil:
		return nil, err
	}

	e, err := f.employees.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authFailure(http.StatusNotFound, "No employee found for this email.")
	}
	if err != nil {
		return nil, err
	}
	if !e.IsApproved {
		return nil, authFailure(http.StatusForbidden, "Account not approved yet")
	}
	if err := f.otps.MarkUsed(ctx, email, f.now()); err != nil {
		return nil, err
	}

	e.FCMToken = ""
	slog.Info("OTP verified.", "kgid", e.Kgid)
	return &models.AuthResponse{Success: true, Message: "OTP verified successfully.", Employee: &e}, nil
}

// UpdatePin replaces the stored PIN hash. Outside the forgot-PIN flow the
// caller must prove the current PIN; inside it the email's OTP must have
// been verified within auth.ResetWindow, and it is spent by the reset.
func (f *AuthAPIFunction) UpdatePin(ctx context.Context, req models.AuthRequest) (*models.AuthResponse, error) {
	email := directory.NormalizeEmail(req.Email)
	newHash := strings.ToLower(strings.TrimSpace(req.NewPinHash))
	if email == "" || newHash == "" {
		return nil, authFailure(http.StatusBadRequest, "Email and new PIN are required")
	}
	if !pinHashPattern.MatchString(newHash) {
		return nil, authFailure(http.StatusBadRequest, "New PIN must be a SHA-256 hash")
	}

	e, err := f.employees.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, authFailure(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return nil, err
	}
	var otp models.OTPRequest
	if req.IsForgot {
		otp, err = f.otps.Get(ctx, email)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if err != nil || !auth.AllowsPinReset(otp, f.now()) {
			return nil, authFailure(http.StatusUnauthorized, "Verify the OTP sent to your email first")
		}
	} else if !auth.PinHashesEqual(req.OldPinHash, e.Pin) {
		return nil, authFailure(http.StatusUnauthorized, "Incorrect old PIN")
	}

	if err := f.employees.Merge(ctx, e.Kgid, map[string]any{"pin": newHash}); err != nil {
		return nil, err
	}
	if req.IsForgot {
		otp.Status = models.OTPSpent
		if err := f.otps.Put(ctx, otp); err != nil {
			slog.Warn("Failed to spend reset OTP", "email", email, "error", err)
		}
	}
	slog.Info("PIN updated.", "kgid", e.Kgid, "forgot", req.IsForgot)
	return &models.AuthResponse{Success: true, Message: "PIN updated successfully"}, nil
}

// OTPCleanerFunction removes expired login codes.
type OTPCleanerFunction struct {
	otps store.OTPs
	now  func() time.Time
}

func NewOTPCleaner(ctx context.Context) (*OTPCleanerFunction, error) {
	clients, err := newGoogleClients(ctx)
	if err != nil {
		return nil, err
	}
	fs, err := clients.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	return NewOTPCleanerWith(store.NewFirestoreSet(fs).OTPs), nil
}

func NewOTPCleanerWith(otps store.OTPs) *OTPCleanerFunction {
	return &OTPCleanerFunction{otps: otps, now: time.Now}
}

func (f *OTPCleanerFunction) Process(ctx context.Context) (int, error) {
	n, err := f.otps.DeleteExpired(ctx, f.now())
	if err != nil {
		slog.Error("Failed to clean expired OTPs", "deleted", n, "error", err)
		return n, err
	}
	slog.Info("Expired OTPs cleaned.", "deleted", n)
	return n, nil
}
