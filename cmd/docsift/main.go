// Command docsift is the interactive console search tool: it indexes a
// directory of extracted page text, persists the snapshot next to the
// corpus, and answers queries at a prompt with ranked documents and the
// pages the query terms occur on.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docsift/docsift/internal/engine"
	"github.com/docsift/docsift/internal/ingest"
	"github.com/docsift/docsift/internal/store"
	"github.com/docsift/docsift/pkg/config"
	"github.com/docsift/docsift/pkg/logger"
)

func main() {
	update := flag.Bool("update", false, "rebuild the index even if a snapshot exists")
	limit := flag.Int("limit", 0, "maximum results per query (0 = all)")
	snapPath := flag.String("snapshot", "", "snapshot file path (default: <corpus>/index.snap)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <corpus-dir>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	corpusDir := flag.Arg(0)
	if *snapPath == "" {
		*snapPath = filepath.Join(corpusDir, "index.snap")
	}

	// Console tool: keep structured logs out of the interaction.
	logger.Setup("warn", "text")

	ctx := context.Background()
	eng := engine.New()
	snapshots := store.NewFileStore(config.SnapshotConfig{Path: *snapPath})

	if err := prepare(ctx, eng, snapshots, corpusDir, *update); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Ready to search. Enter your query (or press Enter to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Query: ")
		if !scanner.Scan() {
			break
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			break
		}
		results, err := eng.Search(q, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if len(results) == 0 {
			fmt.Println("No results found for the given query.")
			fmt.Println()
			continue
		}
		fmt.Println("\nSearch results:")
		for _, res := range results {
			fmt.Printf("Document: %s - Score: %.4f\n", res.DocumentID, res.Score)
			fmt.Printf("  Found on page(s): %s\n", joinPages(res.Pages))
		}
		fmt.Println()
	}
}

// prepare installs an index into the engine: the persisted snapshot when
// available and not explicitly bypassed, otherwise a fresh build from the
// corpus directory, persisted for next time.
func prepare(ctx context.Context, eng *engine.Engine, snapshots *store.FileStore, corpusDir string, update bool) error {
	if !update {
		snap, err := snapshots.Load()
		if err == nil {
			eng.Restore(snap)
			fmt.Printf("Loaded index of %d documents from %s\n", snap.DocCount(), snapshots.Path())
			return nil
		}
		if !errors.Is(err, store.ErrNoSnapshot) {
			fmt.Fprintf(os.Stderr, "warning: %v; rebuilding\n", err)
		}
	}

	fmt.Printf("Indexing documents in %s...\n", corpusDir)
	start := time.Now()
	docs, err := ingest.NewLoader(corpusDir).Load(ctx)
	if err != nil {
		return err
	}
	snap, err := eng.Build(ctx, docs)
	if err != nil {
		return err
	}
	if err := snapshots.Save(snap); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not persist index: %v\n", err)
	}
	fmt.Printf("Indexed %d documents (%d terms) in %s\n",
		snap.DocCount(), snap.TermCount(), time.Since(start).Round(time.Millisecond))
	return nil
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ", ")
}
