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
	mediaAPI *services.MediaAPIFunction
	once     sync.Once
	initErr  error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleMedia" is the entry point name configured in GCP.
	functions.HTTP("HandleMedia", handleMedia)
}

// main is required by the Go Functions Framework.
func main() {}

func handleMedia(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		mediaAPI, initErr = services.NewMediaAPI(context.Background())
	})
	if initErr != nil {
		slog.Error("Media API initialization failed", "error", initErr)
		httpx.JSONError(w, http.StatusInternalServerError, "failed to initialize service", nil)
		return
	}
	mediaAPI.ServeHTTP(w, r)
}
