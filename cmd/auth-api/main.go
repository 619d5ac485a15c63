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
	authAPI *services.AuthAPIFunction
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleAuth" is the entry point name configured in GCP.
	functions.HTTP("HandleAuth", handleAuth)
}

// main is required by the Go Functions Framework.
func main() {}

func handleAuth(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		authAPI, initErr = services.NewAuthAPI(context.Background())
	})
	if initErr != nil {
		slog.Error("Auth API initialization failed", "error", initErr)
		httpx.JSONError(w, http.StatusInternalServerError, "failed to initialize service", nil)
		return
	}
	authAPI.ServeHTTP(w, r)
}
