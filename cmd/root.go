package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"estatekg/relate/internal/audit"
	"estatekg/relate/internal/build"
	"estatekg/relate/internal/config"
	"estatekg/relate/internal/db"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/neo4jgraph"
)

var (
	dbPath     string
	storeKind  string
	configPath string
	logMode    string
)

var rootCmd = &cobra.Command{
	Use:   "relate",
	Short: "Relationship construction for the real-estate knowledge graph",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the .relate.db SQLite database")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "sqlite", "Store backend: sqlite or neo4j")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "dev", "Log mode: dev or prod")
}

// graphStore is the full store surface the commands need: the build
// contract plus the audit read surface.
type graphStore interface {
	build.Store
	audit.Source
}

// DiscoverDB finds the SQLite path using priority: env > flag > walk-up.
func DiscoverDB() (string, error) {
	if envPath := os.Getenv("RELATE_DB"); envPath != "" {
		return envPath, nil
	}
	if dbPath != "" {
		return dbPath, nil
	}
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ".relate.db")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	return "", fmt.Errorf("no .relate.db found (set RELATE_DB, use --db, or run from a directory containing .relate.db)")
}

// openStore opens the configured backend. The returned cleanup is safe to
// call exactly once.
func openStore(ctx context.Context, cfg config.Config, log *logger.Logger) (graphStore, func(), error) {
	switch storeKind {
	case "sqlite":
		path, err := DiscoverDB()
		if err != nil {
			return nil, nil, err
		}
		store, err := db.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "neo4j":
		store, err := neo4jgraph.New(ctx, cfg.Neo4j, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close(ctx) }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalid, storeKind)
	}
}

func newLogger() (*logger.Logger, error) {
	return logger.New(logMode)
}
