package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/pascomapp/tally-sync/internal/config"
	"github.com/pascomapp/tally-sync/internal/store"
)

func main() {
	dataPath := flag.String("data-path", "", "Path of the published tally JSON")
	top := flag.Int("top", 0, "Show only the N largest categories (0 shows all)")
	watch := flag.Bool("watch", false, "Keep running and re-print whenever the file changes")
	flag.Parse()

	path := *dataPath
	if path == "" {
		path = os.Getenv("DATA_PATH")
	}
	if path == "" {
		path = config.DefaultDataPath
	}

	if !*watch {
		printTally(path, *top)
		return
	}

	if err := watchTally(path, *top); err != nil {
		log.Fatalf("Watch failed: %v", err)
	}
}

func printTally(path string, top int) {
	st := store.New(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	counts := st.Load()

	fmt.Println("=== Tally Inspection ===")
	fmt.Printf("File: %s\n", path)
	fmt.Println()

	if len(counts) == 0 {
		fmt.Println("No categories recorded.")
		return
	}

	labels := counts.Labels()
	shown := labels
	if top > 0 && top < len(labels) {
		shown = labels[:top]
	}

	for i, label := range shown {
		fmt.Printf("%3d. %s: %d\n", i+1, label, counts[label])
	}
	if len(shown) < len(labels) {
		fmt.Printf("     ... and %d more categories\n", len(labels)-len(shown))
	}

	stats := counts.Stats()
	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Total signups: %d\n", stats.Total)
	fmt.Printf("Categories: %d\n", len(counts))
	fmt.Printf("Active categories: %d\n", stats.Active)
	if stats.Active > 0 {
		fmt.Printf("Average per active category: %.1f\n", stats.Mean)
	}
}

// watchTally re-prints the tally whenever the file is rewritten.
func watchTally(path string, top int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory: the sync job replaces the file by
	// rename, which drops a watch placed on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	printTally(path, top)
	fmt.Println()
	fmt.Println("Watching for changes. Ctrl+C to stop.")

	target := filepath.Clean(path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fmt.Println()
			printTally(path, top)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watch error: %v", err)
		}
	}
}
