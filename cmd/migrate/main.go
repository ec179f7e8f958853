package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ignite/settlement-desk/internal/docstore/postgres"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Postgres schema tool for the settlement desk document store",
	Long: `migrate creates the documents table and applies the SQL files under a
migrations directory in name order, one transaction per file.

Examples:
  migrate apply
  migrate apply ./migrations
  migrate list`,
	SilenceUsage: true,
}

var applyCmd = &cobra.Command{
	Use:   "apply [dir]",
	Short: "Create the documents table and apply migrations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "migrations"
		if len(args) == 1 {
			dir = args[0]
		}
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return apply(cmd.Context(), db, dir)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print document counts per collection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		return list(cmd.Context(), db)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN (defaults to $DATABASE_URL)")
	rootCmd.AddCommand(applyCmd, listCmd)
}

func connect(ctx context.Context) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Connected to database")
	return db, nil
}

func apply(ctx context.Context, db *sql.DB, dir string) error {
	if err := postgres.New(db).EnsureSchema(ctx); err != nil {
		return err
	}
	fmt.Println("Documents table ready")

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		fmt.Printf("No migrations dir %s, nothing else to apply\n", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var okCount, errCount int
	for _, f := range files {
		path := filepath.Join(dir, f)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			continue
		}
		fmt.Printf("  %s ... ", f)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			fmt.Printf("BEGIN ERROR: %v\n", err)
			errCount++
			continue
		}
		if _, err := tx.ExecContext(ctx, content); err != nil {
			tx.Rollback()
			fmt.Printf("ERROR: %v\n", err)
			errCount++
			continue
		}
		if err := tx.Commit(); err != nil {
			fmt.Printf("COMMIT ERROR: %v\n", err)
			errCount++
			continue
		}
		fmt.Println("OK")
		okCount++
	}
	fmt.Printf("Done: %d OK, %d errors\n", okCount, errCount)
	if errCount > 0 {
		return fmt.Errorf("%d migrations failed", errCount)
	}
	return nil
}

func list(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "SELECT collection, COUNT(*) FROM documents GROUP BY collection ORDER BY collection")
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var coll string
		var count int
		if err := rows.Scan(&coll, &count); err != nil {
			return err
		}
		fmt.Printf("  %-50s %d\n", coll, count)
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	fmt.Printf("Total: %d collections\n", n)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
