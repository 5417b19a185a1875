package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/arguspanoptes/argus-server/internal/adapter"
	"github.com/arguspanoptes/argus-server/internal/cache"
	"github.com/arguspanoptes/argus-server/internal/config"
	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/health"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/logger"
	"github.com/arguspanoptes/argus-server/internal/pool"
	"github.com/arguspanoptes/argus-server/internal/registry"
	"github.com/arguspanoptes/argus-server/internal/retry"
	"github.com/arguspanoptes/argus-server/internal/search"
)

func main() {
	registryPath := flag.String("registry", "configs/libraries", "directory of library system YAML documents")
	system := flag.String("system", "", "limit the search to a single system ID")
	timeout := flag.Duration("timeout", 45*time.Second, "overall search deadline")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: searchtest [flags] <isbn>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	parsed, err := isbn.Parse(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid ISBN: %v\n", err)
		os.Exit(2)
	}

	level := logger.ParseLevel("info")
	if *verbose {
		level = logger.ParseLevel("debug")
	}
	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Environment: "development",
		Level:       level,
	})

	loader := registry.NewLoader(log)
	systems, err := loader.LoadDir(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load registry: %v\n", err)
		os.Exit(2)
	}
	if *system != "" {
		systems = filterSystem(systems, *system)
		if len(systems) == 0 {
			fmt.Fprintf(os.Stderr, "system %q not found in %s\n", *system, *registryPath)
			os.Exit(2)
		}
	}

	reg := registry.New(systems)
	tracker := health.NewTracker()
	base := adapter.NewBase(adapter.NewClient(log), tracker, log, retry.Options{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
	})
	adapters := adapter.BuildRegistry(reg.All(), base)

	coordinator := search.NewCoordinator(
		reg,
		adapters,
		pool.New(20, 2),
		cache.NewSearchCache(false, 0, 0),
		log,
		config.SearchConfig{
			GlobalTimeout:    *timeout,
			PerSystemTimeout: 15 * time.Second,
			MaxRetries:       2,
			RetryBaseDelay:   500 * time.Millisecond,
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+5*time.Second)
	defer cancel()

	result, err := coordinator.Search(ctx, flag.Arg(0), parsed.ISBN13, uuid.NewString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		os.Exit(1)
	}

	printResult(result)

	if result.SystemsSucceeded == 0 && result.SystemsSearched > 0 {
		os.Exit(1)
	}
}

func filterSystem(systems []domain.LibrarySystem, id string) []domain.LibrarySystem {
	for _, s := range systems {
		if string(s.ID) == id {
			return []domain.LibrarySystem{s}
		}
	}
	return nil
}

func printResult(r *domain.SearchResult) {
	fmt.Printf("\n=== Search Complete ===\n")
	fmt.Printf("ISBN:      %s\n", r.ISBN13)
	fmt.Printf("Duration:  %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Printf("Systems:   %d searched, %d succeeded, %d failed, %d timed out\n",
		r.SystemsSearched, r.SystemsSucceeded, r.SystemsFailed, r.SystemsTimedOut)
	fmt.Printf("Copies:    %d total, %d available\n", r.TotalCopies, r.TotalAvailable)
	if r.IsPartial {
		fmt.Println("Partial:   some systems did not finish in time")
	}

	for _, h := range r.Holdings {
		line := fmt.Sprintf("  %-30s %-25s %-12s", h.SystemName, h.BranchName, h.Status)
		if h.CallNumber != "" {
			line += " " + h.CallNumber
		}
		if h.DueDate != "" {
			line += " (due " + h.DueDate + ")"
		}
		fmt.Println(line)
	}

	for _, e := range r.Errors {
		fmt.Printf("  error: %-25s %s: %s\n", e.SystemID, e.Type, e.Message)
	}
}
