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
	employeeAPI *services.EmployeeAPIFunction
	once        sync.Once
	initErr     error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleEmployees" is the entry point name configured in GCP.
	functions.HTTP("HandleEmployees", handleEmployees)
}

// main is required by the Go Functions Framework.
func main() {}

func handleEmployees(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		employeeAPI, initErr = services.NewEmployeeAPI(context.Background())
	})
	if initErr != nil {
		slog.Error("Employee API initialization failed", "error", initErr)
		httpx.JSONError(w, http.StatusInternalServerError, "failed to initialize service", nil)
		return
	}
	employeeAPI.ServeHTTP(w, r)
}
