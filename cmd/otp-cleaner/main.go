package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/policedirectory/internal/services"
)

var (
	cleaner *services.OTPCleanerFunction
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Cloud Scheduler publishes to the topic this function subscribes to.
	functions.CloudEvent("CleanExpiredOtps", cleanExpiredOtps)
}

// main is required by the Go Functions Framework.
func main() {}

func cleanExpiredOtps(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		cleaner, initErr = services.NewOTPCleaner(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}
	_, err := cleaner.Process(ctx)
	return err
}
