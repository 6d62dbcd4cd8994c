package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veriforge/veriforge/internal/artifact"
	"github.com/veriforge/veriforge/internal/config"
)

func createListCmd() *cobra.Command {
	var artifactsDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts available in local build artifacts",
		Long: `List every compiled contract found in the build artifact directory,
with its source path and compiler version.

EXAMPLES:
  veriforge list
  veriforge list --artifacts ./build/contracts
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(artifactsDir)
		},
	}

	cmd.Flags().StringVar(&artifactsDir, "artifacts", "", "build artifact directory (default from config)")

	return cmd
}

func runList(artifactsDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging.Level)

	artifactsDir = getArtifactsDir(artifactsDir, cfg.Artifacts.Dir)

	records, err := artifact.LoadAll(artifactsDir, logger)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("No build artifacts found in %s\n", artifactsDir)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTRACT\tSOURCE\tCOMPILER\tARTIFACT")
	for _, record := range records {
		for _, entry := range record.Sources {
			contracts, ok := record.Contracts[entry.Path]
			if !ok {
				continue
			}
			names := make([]string, 0, len(contracts))
			for name := range contracts {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, entry.Path, record.Compiler.Version, record.Path)
			}
		}
	}
	return w.Flush()
}
