// Package git is the version-control collaborator: a narrow wrapper over the
// git binary for the three things gitscribe needs — detect a repository, read
// the staged diff, and commit.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gitscribe/gitscribe/internal/domain"
)

// Runner executes a git subcommand and returns its stdout.
// Injectable so tests never shell out.
type Runner func(ctx context.Context, args ...string) (string, error)

// Client talks to the repository in the current working directory.
type Client struct {
	run Runner
}

// New returns a Client backed by the real git binary.
func New() *Client {
	return &Client{run: runGit}
}

// NewWithRunner returns a Client with a custom runner, for tests.
func NewWithRunner(run Runner) *Client {
	return &Client{run: run}
}

// StagedDiff returns the diff of the index against HEAD.
// Fails with ErrNotARepository outside a work tree and ErrNothingStaged when
// the index is clean.
func (c *Client) StagedDiff(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNotARepository, err)
	}
	// rev-parse exits 0 and prints "false" inside .git itself.
	if strings.TrimSpace(out) != "true" {
		return "", domain.ErrNotARepository
	}

	diff, err := c.run(ctx, "diff", "--cached", "--no-color")
	if err != nil {
		return "", fmt.Errorf("read staged diff: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		return "", domain.ErrNothingStaged
	}
	return diff, nil
}

// Commit creates a commit from the staged changes with the given message.
func (c *Client) Commit(ctx context.Context, message string) error {
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	return nil
}

// runGit executes git with the given arguments, folding stderr into the
// error for diagnosability.
func runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %s", args[0], msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}
