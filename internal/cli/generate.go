package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitscribe/gitscribe/internal/config"
	"github.com/gitscribe/gitscribe/internal/git"
	"github.com/gitscribe/gitscribe/internal/infra/acquire"
	"github.com/gitscribe/gitscribe/internal/infra/engine"
	"github.com/gitscribe/gitscribe/internal/infra/sqlite"
)

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)
	home := config.Home()
	modelID := config.SelectedModel(home)

	// Read the diff first: failing on "not a repository" before a
	// multi-gigabyte download is the polite order.
	gitc := git.New()
	diff, err := gitc.StagedDiff(ctx)
	if err != nil {
		return err
	}

	db, err := sqlite.Open(home)
	if err != nil {
		return err
	}
	defer db.Close()

	orch := acquire.New(cfg.Models.Dir, db)
	pb := newProgressBar(modelID)
	modelPath, err := orch.Ensure(ctx, modelID, acquire.EnsureOptions{
		Insecure:   cfg.Models.Insecure,
		OnProgress: pb.callback,
	})
	pb.finish()
	if err != nil {
		return fmt.Errorf("prepare model %s: %w", modelID, err)
	}

	gen, err := engine.New(home, engine.Options{
		Bin:          cfg.Generate.LlamaBin,
		MaxTokens:    cfg.Generate.MaxTokens,
		Temperature:  cfg.Generate.Temperature,
		MaxDiffBytes: cfg.Generate.MaxDiffBytes,
	})
	if err != nil {
		return err
	}

	return reviewLoop(ctx, gitc, gen, modelPath, diff)
}

// reviewLoop generates a message and lets the user act on it:
// commit, edit then commit, regenerate, or quit.
func reviewLoop(ctx context.Context, gitc *git.Client, gen *engine.Generator, modelPath, diff string) error {
	scanner := newLineScanner(os.Stdin)

	for {
		msg, err := gen.Generate(ctx, modelPath, diff, func(s string) {
			fmt.Fprintf(os.Stderr, "\r\033[K%s...", s)
		})
		fmt.Fprintf(os.Stderr, "\r\033[K")
		if err != nil {
			return fmt.Errorf("generate message: %w", err)
		}

		fmt.Println()
		fmt.Println(indent(msg, "  "))
		fmt.Println()

		for {
			fmt.Print("[c]ommit, [e]dit, [r]egenerate, [q]uit: ")
			if !scanner.Scan() {
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "c", "commit":
				if err := gitc.Commit(ctx, msg); err != nil {
					return err
				}
				fmt.Println("Committed.")
				return nil
			case "e", "edit":
				edited, err := openEditor(msg)
				if err != nil {
					return fmt.Errorf("edit message: %w", err)
				}
				if strings.TrimSpace(edited) == "" {
					fmt.Println("Empty message, not committing.")
					continue
				}
				if err := gitc.Commit(ctx, edited); err != nil {
					return err
				}
				fmt.Println("Committed.")
				return nil
			case "r", "regenerate":
				// Back to the outer loop for a fresh sample.
			case "q", "quit":
				return nil
			default:
				continue
			}
			break
		}
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
