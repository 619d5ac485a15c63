package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/services"
)

var (
	registrationAPI *services.RegistrationAPIFunction
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleRegistrations" is the entry point name configured in GCP.
	functions.HTTP("HandleRegistrations", handleRegistrations)
}

// main is required by the Go Functions Framework.
func main() {}

func handleRegistrations(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		registrationAPI, initErr = services.NewRegistrationAPI(context.Background())
	})
	if initErr != nil {
		slog.Error("Registration API initialization failed", "error", initErr)
		httpx.JSONError(w, http.StatusInternalServerError, "failed to initialize service", nil)
		return
	}
	registrationAPI.ServeHTTP(w, r)
}
