package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/policedirectory/internal/services"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

var (
	notifier *services.RegistrationNotifierFunction
	once     sync.Once
	initErr  error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by document creation in pending_registrations.
	functions.CloudEvent("NotifyAdminsOfRegistration", notifyAdmins)
}

// main is required by the Go Functions Framework.
func main() {}

func notifyAdmins(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		notifier, initErr = services.NewRegistrationNotifier(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	id, err := services.DocumentID(e.Subject(), store.RegistrationsCollection)
	if err != nil {
		slog.Error("Ignoring event", "eventId", e.ID(), "error", err)
		return nil
	}
	_, err = notifier.Process(ctx, id)
	return err
}
