// songctl is an operator CLI for a running songboard server: upload a
// dataset, page through the listing, search, or rate a song.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"songboard/internal/client"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	baseURL := os.Getenv("SONGBOARD_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	api := client.New(baseURL)
	ctx := context.Background()

	var result interface{}
	var err error

	switch os.Args[1] {
	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		file := fs.String("file", "", "path to a column-oriented JSON dataset")
		parseArgs(fs)
		if *file == "" {
			fs.Usage()
			os.Exit(2)
		}
		result, err = api.UploadDataset(ctx, *file)

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		page := fs.Int("page", 1, "1-indexed page number")
		limit := fs.Int("limit", 10, "page size")
		parseArgs(fs)
		result, err = api.List(ctx, *page, *limit)

	case "search":
		fs := flag.NewFlagSet("search", flag.ExitOnError)
		title := fs.String("title", "", "title substring to search for")
		parseArgs(fs)
		if *title == "" {
			fs.Usage()
			os.Exit(2)
		}
		result, err = api.Search(ctx, *title)

	case "rate":
		fs := flag.NewFlagSet("rate", flag.ExitOnError)
		songID := fs.String("id", "", "song id")
		rating := fs.Int("rating", 0, "rating between 1 and 5")
		parseArgs(fs)
		if *songID == "" {
			fs.Usage()
			os.Exit(2)
		}
		result, err = api.Rate(ctx, *songID, *rating)

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		slog.Error("Failed to encode result", "error", err)
		os.Exit(1)
	}
}

func parseArgs(fs *flag.FlagSet) {
	// flag.ExitOnError makes the error path unreachable
	_ = fs.Parse(os.Args[2:])
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: songctl <command> [flags]

commands:
  upload  -file <dataset.json>     upload a column-oriented dataset
  list    [-page N] [-limit N]     page through the rating-sorted listing
  search  -title <substring>       search songs by title
  rate    -id <song-id> -rating N  rate a song (1-5)

SONGBOARD_URL selects the server (default http://localhost:8080).`)
}
