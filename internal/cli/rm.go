package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitscribe/gitscribe/internal/config"
	"github.com/gitscribe/gitscribe/internal/infra/acquire"
	"github.com/gitscribe/gitscribe/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm MODEL_ID",
	Short: "Remove a downloaded model from local storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(config.Home())
	if err != nil {
		return err
	}
	defer db.Close()

	orch := acquire.New(cfg.Models.Dir, db)
	if err := orch.Remove(args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", args[0])
	return nil
}
