package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gitscribe/gitscribe/internal/config"
	"github.com/gitscribe/gitscribe/internal/domain"
	"github.com/gitscribe/gitscribe/internal/infra/catalog"
	"github.com/gitscribe/gitscribe/internal/infra/sqlite"
	"github.com/gitscribe/gitscribe/internal/infra/store"
)

func init() {
	rootCmd.AddCommand(modelsCmd)
}

var modelsCmd = &cobra.Command{
	Use:     "models",
	Aliases: []string{"ls"},
	Short:   "List available models and their local state",
	RunE:    runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	home := config.Home()
	selected := config.SelectedModel(home)

	db, err := sqlite.Open(home)
	if err != nil {
		return err
	}
	defer db.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tNAME\tSIZE\tSTATUS\tPULLED")
	for _, e := range catalog.All() {
		st, err := store.Inspect(filepath.Join(cfg.Models.Dir, e.HFFile))
		if err != nil {
			return err
		}

		status := "-"
		switch st.Kind {
		case store.Complete:
			status = "ready"
		case store.Incomplete:
			status = "partial"
		}

		pulled := "-"
		if info, err := db.GetArtifact(e.ID); err == nil && info != nil {
			pulled = info.PulledAt.Format("2006-01-02 15:04")
		}

		mark := " "
		if e.ID == selected {
			mark = "*"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, e.ID, e.DisplayName, domain.HumanSize(e.SizeBytes), status, pulled)
	}
	return w.Flush()
}
