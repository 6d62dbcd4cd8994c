package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veriforge/veriforge/internal/storage"
)

func createHistoryCmd() *cobra.Command {
	var limit int
	var address string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past verification results",
		Long: `Show the locally recorded verification history, newest first.

EXAMPLES:
  veriforge history
  veriforge history --limit 10

  # Latest result for one address
  veriforge history --address 0x1234...
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), limit, address)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum records to show")
	cmd.Flags().StringVar(&address, "address", "", "show only the latest record for this address")

	return cmd
}

func runHistory(ctx context.Context, limit int, address string) error {
	store, err := openHistoryStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if address != "" {
		return showLatestForAddress(ctx, store, address)
	}

	records, err := store.ListVerifications(ctx, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No verifications recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tCONTRACT\tADDRESS\tSTATUS\tDETAIL")
	for _, rec := range records {
		detail := rec.ExplorerURL
		if rec.Status != "succeeded" {
			detail = rec.Reason
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.ContractName, rec.Address, rec.Status, detail)
	}
	return w.Flush()
}

// showLatestForAddress prints the most recent record for one address.
func showLatestForAddress(ctx context.Context, store storage.Store, address string) error {
	rec, err := store.GetVerification(ctx, address)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Printf("No verification recorded for %s\n", address)
			return nil
		}
		return err
	}

	fmt.Printf("%s  %s at %s\n", rec.CreatedAt.Format("2006-01-02 15:04"), rec.ContractName, rec.Address)
	fmt.Printf("  Status:   %s (%d attempts)\n", rec.Status, rec.Attempts)
	if rec.CompilerVersion != "" {
		fmt.Printf("  Compiler: %s\n", rec.CompilerVersion)
	}
	if rec.ExplorerURL != "" {
		fmt.Printf("  Explorer: %s\n", rec.ExplorerURL)
	}
	if rec.Reason != "" {
		fmt.Printf("  Reason:   %s\n", rec.Reason)
	}
	return nil
}

// historyDBPath returns the SQLite history database location.
func historyDBPath() string {
	if env := os.Getenv("VERIFORGE_HISTORY_DB"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".veriforge/history.db"
	}
	return filepath.Join(home, ".veriforge", "history.db")
}

// openHistoryStore opens the history database and ensures the schema.
func openHistoryStore(ctx context.Context) (storage.Store, error) {
	store, err := storage.NewSQLiteStore(historyDBPath())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
