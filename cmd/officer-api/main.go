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
	officerAPI *services.OfficerAPIFunction
	once       sync.Once
	initErr    error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleOfficers" is the entry point name configured in GCP.
	functions.HTTP("HandleOfficers", handleOfficers)
}

// main is required by the Go Functions Framework.
func main() {}

func handleOfficers(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		officerAPI, initErr = services.NewOfficerAPI(context.Background())
	})
	if initErr != nil {
		slog.Error("Officer API initialization failed", "error", initErr)
		httpx.JSONError(w, http.StatusInternalServerError, "failed to initialize service", nil)
		return
	}
	officerAPI.ServeHTTP(w, r)
}
