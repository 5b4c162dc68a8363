package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitscribe/gitscribe/internal/config"
	"github.com/gitscribe/gitscribe/internal/domain"
	"github.com/gitscribe/gitscribe/internal/infra/acquire"
	"github.com/gitscribe/gitscribe/internal/infra/catalog"
	"github.com/gitscribe/gitscribe/internal/infra/sqlite"
)

var setModelInsecure bool

func init() {
	setModelCmd.Flags().BoolVar(&setModelInsecure, "insecure", false,
		"skip TLS certificate verification for the download")
	rootCmd.AddCommand(setModelCmd)
}

var setModelCmd = &cobra.Command{
	Use:   "set-model MODEL_ID",
	Short: "Select the model and download it now",
	Long:  `Select which model generates commit messages, and download it immediately so the first generate doesn't wait.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSetModel,
}

func runSetModel(cmd *cobra.Command, args []string) error {
	id := args[0]

	// Validate against the catalog before touching disk or network.
	if catalog.Lookup(id) == nil {
		var ids []string
		for _, e := range catalog.All() {
			ids = append(ids, e.ID)
		}
		return fmt.Errorf("model %q: %w\nAvailable models: %s",
			id, domain.ErrUnknownModel, strings.Join(ids, ", "))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)
	home := config.Home()

	if err := config.SaveSelectedModel(home, id); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}

	db, err := sqlite.Open(home)
	if err != nil {
		return err
	}
	defer db.Close()

	orch := acquire.New(cfg.Models.Dir, db)
	pb := newProgressBar(id)
	path, err := orch.Ensure(cmd.Context(), id, acquire.EnsureOptions{
		Insecure:   setModelInsecure || cfg.Models.Insecure,
		OnProgress: pb.callback,
	})
	pb.finish()
	if err != nil {
		return fmt.Errorf("download %s: %w", id, err)
	}

	fmt.Printf("Selected %s (%s)\n", id, path)
	return nil
}
