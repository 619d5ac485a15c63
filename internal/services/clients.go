package services

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	drive "google.golang.org/api/drive/v3"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/Lllllllleong/policedirectory/internal/gcp"
)

// googleClients resolves credentials once per instance and builds API
// clients on first use.
type googleClients struct {
	projectID string
	opts      []option.ClientOption

	mu        sync.Mutex
	firestore *firestore.Client
	sheets    *sheets.Service
	drive     *drive.Service
	fcm       *fcm.Service
}

func newGoogleClients(ctx context.Context) (*googleClients, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	opts, err := gcp.ClientOptions(ctx, gcp.GetEnv("CREDENTIALS_FILE", ""))
	if err != nil {
		return nil, err
	}
	return &googleClients{projectID: projectID, opts: opts}, nil
}

func (c *googleClients) Firestore(ctx context.Context) (*firestore.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firestore == nil {
		client, err := gcp.NewFirestoreClient(ctx, c.projectID, c.opts...)
		if err != nil {
			return nil, err
		}
		c.firestore = client
	}
	return c.firestore, nil
}

func (c *googleClients) Sheets(ctx context.Context) (*sheets.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheets == nil {
		srv, err := gcp.NewSheetsService(ctx, c.opts...)
		if err != nil {
			return nil, err
		}
		c.sheets = srv
	}
	return c.sheets, nil
}

func (c *googleClients) Drive(ctx context.Context) (*drive.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drive == nil {
		srv, err := gcp.NewDriveService(ctx, c.opts...)
		if err != nil {
			return nil, err
		}
		c.drive = srv
	}
	return c.drive, nil
}

func (c *googleClients) FCM(ctx context.Context) (*fcm.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fcm == nil {
		srv, err := gcp.NewFCMService(ctx, c.opts...)
		if err != nil {
			return nil, err
		}
		c.fcm = srv
	}
	return c.fcm, nil
}
