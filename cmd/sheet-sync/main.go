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
	sheetSync *services.SheetSyncFunction
	once      sync.Once
	initErr   error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleSheetSync" is the entry point name configured in GCP.
	functions.HTTP("HandleSheetSync", handleSheetSync)
}

// main is required by the Go Functions Framework.
func main() {}

func handleSheetSync(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		sheetSync, initErr = services.NewSheetSync(context.Background())
	})
	if initErr != nil {
		slog.Error("Sheet sync initialization failed", "error", initErr)
		httpx.JSONError(w, http.StatusInternalServerError, "failed to initialize service", nil)
		return
	}
	sheetSync.ServeHTTP(w, r)
}
