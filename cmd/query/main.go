package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/typesearch/typesearch"
	"github.com/urfave/cli/v2"
)

const (
	defaultPerPage = 10
	defaultTimeout = 5 * time.Second
)

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "query",
		Usage: "Execute search queries against a search engine collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "collection",
				Aliases:  []string{"c"},
				Usage:    "Collection name",
				EnvVars:  []string{"TYPESEARCH_COLLECTION"},
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "query-by",
				Usage:    "Field to match the query against; repeatable",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "server",
				Usage:   "Engine node base URL; repeatable",
				EnvVars: []string{"TYPESEARCH_URL"},
				Value:   cli.NewStringSlice(typesearch.DefaultNode),
			},
			&cli.StringFlag{
				Name:    "api-key-secret-id",
				Usage:   "AWS Secrets Manager secret holding the engine API key",
				EnvVars: []string{"TYPESEARCH_API_KEY_SECRET_ID"},
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query string to search for; positional arg is a fallback",
			},
			&cli.IntFlag{
				Name:    "per-page",
				Aliases: []string{"n"},
				Usage:   "Maximum number of hits to return",
				Value:   defaultPerPage,
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "1-based result page",
				Value:   1,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for the search request",
				Value: defaultTimeout,
			},
			&cli.StringSliceFlag{
				Name:  "filter",
				Usage: "Filter in field=value format; repeatable",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort field, with an optional :desc suffix",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context

	query := strings.TrimSpace(c.String("query"))
	if query == "" && c.NArg() > 0 {
		query = strings.TrimSpace(c.Args().First())
	}

	collection := strings.TrimSpace(c.String("collection"))

	perPage := c.Int("per-page")
	if perPage <= 0 {
		slog.WarnContext(ctx, "per-page must be positive; falling back to default", "per_page", perPage, "default", defaultPerPage)
		perPage = defaultPerPage
	}

	page := c.Int("page")
	if page <= 0 {
		slog.WarnContext(ctx, "page must be positive; resetting to 1", "page", page)
		page = 1
	}

	timeout := c.Duration("timeout")
	if timeout <= 0 {
		slog.WarnContext(ctx, "timeout must be positive; using default", "timeout", timeout, "default", defaultTimeout)
		timeout = defaultTimeout
	}

	filter, err := buildFilter(c.StringSlice("filter"))
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	secretID := strings.TrimSpace(c.String("api-key-secret-id"))

	var provider typesearch.APIKeyProvider
	if secretID != "" {
		slog.InfoContext(ctx, "using AWS Secrets Manager for the engine API key", "secret_id", secretID)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		secretsClient := secretsmanager.NewFromConfig(cfg)
		provider = typesearch.SecretsManagerAPIKey(ctx, secretsClient, secretID)
	} else {
		provider = typesearch.EnvAPIKey()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := typesearch.NewClient(
		typesearch.WithNodes(c.StringSlice("server")...),
		typesearch.WithAPIKeyProvider(provider),
		typesearch.WithConnectionTimeout(timeout),
	)

	opts := []typesearch.SearchOption{
		typesearch.WithQueryBy(c.StringSlice("query-by")...),
		typesearch.WithPerPage(perPage),
		typesearch.WithPage(page),
	}
	if filter != nil {
		opts = append(opts, typesearch.WithFilter(filter))
	}
	if sort := strings.TrimSpace(c.String("sort")); sort != "" {
		field, desc := parseSort(sort)
		opts = append(opts, typesearch.WithSort(field, desc))
	}

	slog.InfoContext(ctx, "executing query",
		"collection", collection,
		"query", query,
		"per_page", perPage,
		"page", page,
		"timeout", timeout,
	)

	result, err := client.Search(ctx, collection, query, opts...)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if err := printResult(result); err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}

	return nil
}

func buildFilter(raw []string) (typesearch.Filter, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	filters := make([]typesearch.Filter, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, fmt.Errorf("filter cannot be empty")
		}

		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("filter must be in field=value format: %q", item)
		}

		field := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if field == "" || value == "" {
			return nil, fmt.Errorf("filter field and value must be non-empty: %q", item)
		}

		filters = append(filters, typesearch.Eq(field, value))
	}

	if len(filters) == 1 {
		return filters[0], nil
	}
	return typesearch.And(filters...), nil
}

func parseSort(raw string) (field string, desc bool) {
	if field, ok := strings.CutSuffix(raw, ":desc"); ok {
		return field, true
	}
	return strings.TrimSuffix(raw, ":asc"), false
}

func printResult(res *typesearch.SearchResult) error {
	if res == nil {
		fmt.Println("{}")
		return nil
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	fmt.Println(string(data))
	return nil
}
