// Command catalog fetches one page of the product catalog and prints it as
// JSON, the way the storefront sees it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/infra/fakestore"
	"github.com/dwikikusuma/storefront/pkg/config"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/dwikikusuma/storefront/pkg/shutdown"
)

var (
	listLimit int
	listURL   string
	listFlat  bool
)

var rootCmd = &cobra.Command{
	Use:           "catalog",
	Short:         "Inspect the storefront product catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch one page of products and print it as JSON",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Number of products to fetch (0 = CATALOG_LIMIT)")
	listCmd.Flags().StringVar(&listURL, "url", "", "Catalog endpoint (empty = CATALOG_URL)")
	listCmd.Flags().BoolVar(&listFlat, "compact", false, "Print without indentation")
}

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "catalog:", err)
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Service: "catalog", Env: cfg.AppEnv, Level: cfg.LogLevel, Output: cmd.ErrOrStderr()})

	endpoint := cfg.CatalogURL
	if listURL != "" {
		endpoint = listURL
	}
	limit := cfg.CatalogLimit
	if listLimit > 0 {
		limit = listLimit
	}

	svc := catalogapp.NewService(
		fakestore.NewClient(endpoint, fakestore.WithTimeout(cfg.CatalogTimeout)),
		log,
	)

	products, err := svc.ListProducts(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", endpoint, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !listFlat {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	log.Debug("catalog printed", slog.Int("count", len(products)), slog.String("url", endpoint))
	return nil
}
