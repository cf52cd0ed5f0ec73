// Command portfolio-upload uploads images for a project and immediately
// asks the portfolio service to reconcile it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lyzr/portfolio/common/bootstrap"
	"github.com/lyzr/portfolio/common/clients"
	"github.com/lyzr/portfolio/common/models"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		projectID string
		category  string
		serverURL string
		token     string
	)

	cmd := &cobra.Command{
		Use:     "portfolio-upload [files...]",
		Short:   "Upload portfolio images and refresh the project",
		Version: Version,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, ok := models.ParseCategory(category)
			if !ok {
				return fmt.Errorf("category must be %s or %s", models.CategoryBefore, models.CategoryAfter)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			components, err := bootstrap.Setup(ctx, "portfolio-upload",
				bootstrap.WithoutDB(),
				bootstrap.WithoutRedis(),
			)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer components.Shutdown(context.WithoutCancel(ctx))

			if token == "" && len(components.Config.Auth.AdminTokens) > 0 {
				token = components.Config.Auth.AdminTokens[0]
			}

			files, closeAll, err := openFiles(args)
			if err != nil {
				return err
			}
			defer closeAll()

			client := clients.NewPortfolioClient(serverURL, token, components.Storage, components.Logger)
			resp, err := client.UploadAndRefresh(ctx, projectID, cat, files)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("refresh failed: %s", resp.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Project id (required)")
	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryAfter), "Image category (before_images, after_images)")
	cmd.Flags().StringVarP(&serverURL, "url", "u", envOr("PORTFOLIO_URL", "http://localhost:8080"), "Portfolio service base URL")
	cmd.Flags().StringVarP(&token, "token", "t", os.Getenv("PORTFOLIO_ADMIN_TOKEN"), "Admin bearer token")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func openFiles(paths []string) ([]clients.UploadFile, func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	files := make([]clients.UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open %s: %w", p, err)
		}
		opened = append(opened, f)

		info, err := f.Stat()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("stat %s: %w", p, err)
		}

		files = append(files, clients.UploadFile{
			Name:        filepath.Base(p),
			Body:        f,
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
		})
	}
	return files, closeAll, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
