package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/typesearch/typesearch"
	"github.com/typesearch/typesearch/internal/ddb"
	"github.com/urfave/cli/v2"
)

type Handler struct {
	client *typesearch.Client
}

func NewHandler(client *typesearch.Client) *Handler {
	return &Handler{client: client}
}

// HandleStreamEvent syncs one batch of DynamoDB stream records into the
// search engine. Inserts and modifications are grouped per collection and
// bulk-upserted in one import call each; removals delete individually.
func (h *Handler) HandleStreamEvent(ctx context.Context, e ddb.StreamEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	upserts := make(map[string][]map[string]any)

	for _, record := range e.Records {
		switch ddb.OperationType(record.EventName) {
		case ddb.OperationTypeInsert, ddb.OperationTypeModify:
			if record.Change.NewImage == nil {
				slog.WarnContext(ctx, "No new image for insert/modify operation, skipping record")
				continue
			}

			parsed, err := ddb.UnmarshalRecord(record.Change.NewImage)
			if err != nil {
				slog.WarnContext(ctx, "Failed to unmarshal record, skipping", "error", err)
				continue
			}
			if parsed.ID == "" || parsed.Collection == "" || parsed.Document == nil {
				slog.WarnContext(ctx, "Incomplete record, skipping", "id", parsed.ID, "collection", parsed.Collection)
				continue
			}

			document := make(map[string]any, len(parsed.Document)+1)
			for k, v := range parsed.Document {
				document[k] = v
			}
			document["id"] = parsed.ID
			upserts[parsed.Collection] = append(upserts[parsed.Collection], document)

		case ddb.OperationTypeRemove:
			parsed, err := ddb.UnmarshalRecord(record.Change.Keys)
			if err != nil {
				slog.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "error", err)
				continue
			}
			if parsed.ID == "" || parsed.Collection == "" {
				slog.WarnContext(ctx, "Missing ID or Collection in delete record, skipping record")
				continue
			}

			if err := h.deleteDocument(ctx, parsed.Collection, parsed.ID); err != nil {
				return err
			}

		default:
			slog.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		}
	}

	for collection, documents := range upserts {
		if err := h.importDocuments(ctx, collection, documents); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) importDocuments(ctx context.Context, collection string, documents []map[string]any) error {
	slog.InfoContext(ctx, "Importing documents", "collection", collection, "count", len(documents))

	outcomes, err := typesearch.ImportDocuments(ctx, h.client, collection, documents,
		typesearch.WithAction(typesearch.ImportUpsert),
	)
	if err != nil {
		slog.ErrorContext(ctx, "Import call failed", "collection", collection, "error", err)
		return err
	}

	for _, outcome := range outcomes {
		if !outcome.Success {
			slog.WarnContext(ctx, "Document rejected by engine",
				"collection", collection,
				"position", outcome.Position,
				"error", outcome.Error,
			)
		}
	}

	return nil
}

func (h *Handler) deleteDocument(ctx context.Context, collection, id string) error {
	slog.InfoContext(ctx, "Deleting document", "collection", collection, "id", id)

	_, err := h.client.DeleteDocument(ctx, collection, id)
	if err != nil && typesearch.KindOf(err) == typesearch.KindNotFound {
		slog.WarnContext(ctx, "Document already gone", "collection", collection, "id", id)
		return nil
	}
	return err
}

func main() {
	app := &cli.App{
		Name:  "dynamodb-typesearch-sync",
		Usage: "Sync DynamoDB stream events into a search engine collection",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "server",
				Usage:   "Search engine node base URL; repeatable",
				EnvVars: []string{"TYPESEARCH_URL"},
				Value:   cli.NewStringSlice(typesearch.DefaultNode),
			},
			&cli.StringFlag{
				Name:    "api-key-secret-id",
				Usage:   "AWS Secrets Manager secret holding the engine API key (takes precedence over the API key flag)",
				EnvVars: []string{"TYPESEARCH_API_KEY_SECRET_ID"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Engine API key",
				EnvVars: []string{"TYPESEARCH_API_KEY"},
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
	servers := c.StringSlice("server")
	secretID := c.String("api-key-secret-id")
	apiKey := c.String("api-key")

	slog.InfoContext(ctx, "Starting DynamoDB to search engine sync", "servers", servers)

	var provider typesearch.APIKeyProvider

	// Prioritize AWS Secrets Manager when a secret id is provided
	if secretID != "" {
		slog.InfoContext(ctx, "Using AWS Secrets Manager for the API key", "secret_id", secretID)

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return err
		}

		client := secretsmanager.NewFromConfig(cfg)
		provider = typesearch.SecretsManagerAPIKey(ctx, client, secretID)
	} else if apiKey != "" {
		slog.InfoContext(ctx, "Using static API key from flags")
		provider = typesearch.StaticAPIKey(apiKey)
	} else {
		slog.InfoContext(ctx, "Using environment variable for the API key")
		provider = typesearch.EnvAPIKey()
	}

	handler := NewHandler(typesearch.NewClient(
		typesearch.WithNodes(servers...),
		typesearch.WithAPIKeyProvider(provider),
	))

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		slog.InfoContext(ctx, "Running in Lambda environment")
		lambda.Start(handler.HandleStreamEvent)
	} else {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
	}

	return nil
}
