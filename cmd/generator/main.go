package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/segmentio/ksuid"
	"github.com/typesearch/typesearch"
	"github.com/urfave/cli/v2"
)

type Book struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Genre  string  `json:"genre"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
}

var (
	authors = map[string][]string{
		"Ursula K. Le Guin":  {"The Dispossessed", "The Left Hand of Darkness", "A Wizard of Earthsea"},
		"Stanislaw Lem":      {"Solaris", "The Cyberiad", "His Master's Voice"},
		"Octavia E. Butler":  {"Kindred", "Parable of the Sower", "Dawn"},
		"Italo Calvino":      {"Invisible Cities", "If on a winter's night a traveler", "The Baron in the Trees"},
		"Terry Pratchett":    {"Small Gods", "Guards! Guards!", "Mort"},
		"Margaret Atwood":    {"The Handmaid's Tale", "Oryx and Crake", "The Blind Assassin"},
		"Haruki Murakami":    {"Kafka on the Shore", "Norwegian Wood", "1Q84"},
		"Kazuo Ishiguro":     {"The Remains of the Day", "Never Let Me Go", "Klara and the Sun"},
	}

	genres = []string{
		"science fiction", "fantasy", "literary fiction", "mystery", "historical",
	}
)

func generateRandomBook() Book {
	authorNames := make([]string, 0, len(authors))
	for a := range authors {
		authorNames = append(authorNames, a)
	}

	author := authorNames[rand.IntN(len(authorNames))]
	titles := authors[author]

	return Book{
		ID:     ksuid.New().String(),
		Title:  titles[rand.IntN(len(titles))],
		Author: author,
		Genre:  genres[rand.IntN(len(genres))],
		Year:   rand.IntN(60) + 1965, // 1965-2024
		Rating: float64(rand.IntN(30)+20) / 10.0,
	}
}

func ensureCollection(ctx context.Context, client *typesearch.Client, name string) error {
	_, err := client.RetrieveCollection(ctx, name)
	if err == nil {
		return nil
	}
	if typesearch.KindOf(err) != typesearch.KindNotFound {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}

	slog.InfoContext(ctx, "Creating collection", "collection", name)
	_, err = client.CreateCollection(ctx, typesearch.CollectionSchema{
		Name: name,
		Fields: []typesearch.Field{
			{Name: "id", Type: "string"},
			{Name: "title", Type: "string"},
			{Name: "author", Type: "string", Facet: true},
			{Name: "genre", Type: "string", Facet: true},
			{Name: "year", Type: "int32", Sort: true},
			{Name: "rating", Type: "float", Sort: true},
		},
		DefaultSortingField: "rating",
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	collection := c.String("collection")
	count := c.Int("count")
	batchSize := c.Int("batch-size")

	slog.InfoContext(ctx, "Starting book generator",
		"collection", collection,
		"count", count,
		"batch_size", batchSize,
	)

	client := typesearch.NewClient(
		typesearch.WithNodes(c.StringSlice("server")...),
		typesearch.WithAPIKeyProvider(typesearch.EnvAPIKey()),
	)

	if err := ensureCollection(ctx, client, collection); err != nil {
		return err
	}

	books := make([]Book, 0, count)
	for i := 0; i < count; i++ {
		books = append(books, generateRandomBook())
	}

	outcomes, err := typesearch.ImportDocuments(ctx, client, collection, books,
		typesearch.WithAction(typesearch.ImportUpsert),
		typesearch.WithBatchSize(batchSize),
	)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	failed := 0
	for _, outcome := range outcomes {
		if !outcome.Success {
			failed++
			slog.WarnContext(ctx, "Book rejected by engine",
				"position", outcome.Position,
				"title", books[outcome.Position].Title,
				"error", outcome.Error,
			)
		}
	}

	slog.InfoContext(ctx, "Finished importing books", "count", count, "failed", failed)
	return nil
}

func main() {
	// Configure JSON logging for AWS environments
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "generator",
		Usage: "Generate random book documents and bulk-import them into a collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "collection",
				Aliases: []string{"c"},
				Usage:   "Target collection name",
				EnvVars: []string{"TYPESEARCH_COLLECTION"},
				Value:   "books",
			},
			&cli.StringSliceFlag{
				Name:    "server",
				Usage:   "Engine node base URL; repeatable",
				EnvVars: []string{"TYPESEARCH_URL"},
				Value:   cli.NewStringSlice(typesearch.DefaultNode),
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of books to generate",
				Value:   100,
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Usage:   "Documents per import request",
				Value:   typesearch.DefaultBatchSize,
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
