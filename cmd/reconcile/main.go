// Command reconcile repairs asymmetric friend lists in the users collection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusconecto/campusconecto/backend/api/internal/config"
	"github.com/campusconecto/campusconecto/backend/api/internal/database"
	"github.com/campusconecto/campusconecto/backend/api/internal/friends"
	"github.com/campusconecto/campusconecto/backend/api/internal/users"
	"github.com/campusconecto/campusconecto/backend/api/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair friend lists left asymmetric by interrupted writes",
		Long:  "Scans every user, drops references to deleted accounts and duplicate entries, and adds missing back-references.",
		RunE:  runReconcile,
	}
	rootCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReconcile(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	level, _ := cmd.Flags().GetString("log-level")
	logger.Init(level)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	col := client.Database(cfg.MongoDB.Database).Collection(database.UsersCollection)
	return reconcile(ctx, cmd.OutOrStdout(), users.NewMongoUserRepository(col, cfg.MongoDB.Transactions), dryRun)
}

// reconcile runs one pass and writes the report as JSON to out.
func reconcile(ctx context.Context, out io.Writer, repo users.UserRepository, dryRun bool) error {
	rep, err := friends.NewReconciler(repo).Run(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	logger.Infof("reconcile done: scanned=%d dangling=%d backrefs=%d duplicates=%d dryRun=%v",
		rep.UsersScanned, rep.DanglingRemoved, rep.BackRefsAdded, rep.DuplicatesRemoved, rep.DryRun)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
