package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/policedirectory/internal/cache"
	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Copy employees and officers from Firestore into the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repos, closeFn, err := openFirestore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			var (
				employees []models.Employee
				officers  []models.Officer
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				employees, err = repos.Employees.List(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				officers, err = repos.Officers.List(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("failed to read directory: %w", err)
			}

			c, err := cache.Open(rootOpts.CachePath)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.ReplaceEmployees(ctx, employees); err != nil {
				return err
			}
			if err := c.ReplaceOfficers(ctx, officers); err != nil {
				return err
			}
			slog.Debug("Cache refreshed.", "path", rootOpts.CachePath)
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d employees and %d officers into %s\n", len(employees), len(officers), rootOpts.CachePath)
			return nil
		},
	}
}

// openFirestore builds repositories from PROJECT_ID and CREDENTIALS_FILE.
func openFirestore(ctx context.Context) (*store.Set, func(), error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	opts, err := gcp.ClientOptions(ctx, gcp.GetEnv("CREDENTIALS_FILE", ""))
	if err != nil {
		return nil, nil, err
	}
	client, err := gcp.NewFirestoreClient(ctx, projectID, opts...)
	if err != nil {
		return nil, nil, err
	}
	return store.NewFirestoreSet(client), func() { _ = client.Close() }, nil
}
