package gcp

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// Scopes needed by the Sheets, Drive and FCM clients.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveScope,
	fcm.FirebaseMessagingScope,
	"https://www.googleapis.com/auth/datastore",
}

// ClientOptions resolves credentials once so every client shares them.
// A service account key file is used when credentialsFile is set, otherwise
// Application Default Credentials.
func ClientOptions(ctx context.Context, credentialsFile string) ([]option.ClientOption, error) {
	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		data, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, Scopes...)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, Scopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load google credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

func NewSheetsService(ctx context.Context, opts ...option.ClientOption) (*sheets.Service, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return srv, nil
}

func NewDriveService(ctx context.Context, opts ...option.ClientOption) (*drive.Service, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return srv, nil
}

func NewFCMService(ctx context.Context, opts ...option.ClientOption) (*fcm.Service, error) {
	srv, err := fcm.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create FCM service: %w", err)
	}
	return srv, nil
}
