package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ignite/orders-map/internal/config"
	"github.com/ignite/orders-map/internal/monday"
	"github.com/ignite/orders-map/internal/orders"
	"github.com/ignite/orders-map/internal/pkg/logger"
)

// export fetches the full board, applies the same filters the dashboard
// offers, and writes the result as CSV. Meant for cron jobs and ad-hoc
// pulls without standing up the server.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	output := flag.String("o", "", "output file (default: stdout)")
	minValue := flag.String("min", "", "minimum order value")
	maxValue := flag.String("max", "", "maximum order value")
	status := flag.String("status", "", "comma-separated status values")
	from := flag.String("from", "", "start date (e.g. 2024-01-31)")
	to := flag.String("to", "", "end date")
	query := flag.String("q", "", "free-text search")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err.Error())
		os.Exit(1)
	}
	if cfg.Monday.APIToken == "" || cfg.Monday.BoardID == 0 {
		logger.Error("MONDAY_API_TOKEN and MONDAY_BOARD_ID are required")
		os.Exit(1)
	}

	filter, err := buildFilter(*minValue, *maxValue, *status, *from, *to, *query)
	if err != nil {
		logger.Error("invalid filter", "error", err.Error())
		os.Exit(1)
	}

	client := monday.NewClient(cfg.Monday)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Monday.Timeout())
	defer cancel()

	cols, err := client.GetColumns(ctx, cfg.Monday.BoardID)
	if err != nil {
		logger.Error("fetching board columns failed", "error", err.Error())
		os.Exit(1)
	}
	colmap, warnings := orders.ResolveColumns(cols, cfg.Columns)
	for _, w := range warnings {
		logger.Warn("column resolution", "warning", w)
	}

	items, err := client.ListItems(ctx, cfg.Monday.BoardID)
	if err != nil {
		logger.Error("fetching board items failed", "error", err.Error())
		os.Exit(1)
	}

	rows := orders.Apply(orders.BuildTable(items, colmap), filter)

	data, err := orders.ExportCSV(rows, colmap.Extras)
	if err != nil {
		logger.Error("CSV export failed", "error", err.Error())
		os.Exit(1)
	}

	if *output == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			logger.Error("writing to stdout failed", "error", err.Error())
			os.Exit(1)
		}
		return
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		logger.Error("writing output file failed", "path", *output, "error", err.Error())
		os.Exit(1)
	}
	logger.Info("export written", "path", *output, "rows", fmt.Sprintf("%d", len(rows)))
}

// buildFilter reuses the HTTP query decoding so CLI and dashboard
// filters cannot drift apart.
func buildFilter(min, max, status, from, to, query string) (orders.FilterState, error) {
	values := url.Values{}
	if min != "" {
		values.Set("min_value", min)
	}
	if max != "" {
		values.Set("max_value", max)
	}
	for _, s := range strings.Split(status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			values.Add("status", s)
		}
	}
	if from != "" {
		values.Set("from", from)
	}
	if to != "" {
		values.Set("to", to)
	}
	if query != "" {
		values.Set("q", query)
	}
	return orders.FilterFromQuery(values)
}
