// Package engine generates commit messages by running a llama.cpp CLI binary
// against a local GGUF model. One short-lived subprocess per invocation; the
// only thing it demands from the acquisition side is a complete model path.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/gitscribe/gitscribe/internal/domain"
)

// Options configures a Generator.
type Options struct {
	Bin          string  // Explicit llama binary path; empty = auto-detect
	MaxTokens    int     // Generation budget
	Temperature  float64 // Sampling temperature
	MaxDiffBytes int     // Diff truncation budget for the prompt
}

// Generator runs the model.
type Generator struct {
	bin  string
	opts Options

	// run executes the binary; injectable for tests.
	run func(ctx context.Context, bin string, args []string) (string, error)
}

// New locates the llama binary and returns a ready Generator.
func New(home string, opts Options) (*Generator, error) {
	bin := opts.Bin
	if bin == "" {
		found, err := findLlama(home)
		if err != nil {
			return nil, err
		}
		bin = found
	}
	return &Generator{bin: bin, opts: opts, run: runBinary}, nil
}

// Generate produces a commit message for the staged diff.
// onStatus receives coarse phase updates ("loading model", "generating").
func (g *Generator) Generate(ctx context.Context, modelPath, diff string, onStatus func(string)) (string, error) {
	status := func(s string) {
		if onStatus != nil {
			onStatus(s)
		}
	}

	prompt := BuildPrompt(diff, g.opts.MaxDiffBytes)

	status("loading model")
	args := []string{
		"-m", modelPath,
		"-p", prompt,
		"-n", strconv.Itoa(g.opts.MaxTokens),
		"--temp", strconv.FormatFloat(g.opts.Temperature, 'f', -1, 64),
		"--no-display-prompt",
		"--simple-io",
	}

	status("generating")
	out, err := g.run(ctx, g.bin, args)
	if err != nil {
		return "", fmt.Errorf("run %s: %w", filepath.Base(g.bin), err)
	}

	msg := CleanMessage(out)
	if msg == "" {
		return "", domain.ErrEmptyMessage
	}
	return msg, nil
}

// findLlama searches for a llama.cpp CLI binary: first the gitscribe bin
// directory, then PATH, trying the common executable names.
func findLlama(home string) (string, error) {
	names := []string{"llama-cli", "llama"}
	for _, name := range names {
		exe := name
		if runtime.GOOS == "windows" {
			exe = name + ".exe"
		}

		binPath := filepath.Join(home, "bin", exe)
		if _, err := os.Stat(binPath); err == nil {
			return binPath, nil
		}
		if path, err := exec.LookPath(exe); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf(`%w

gitscribe needs llama-cli (from llama.cpp) to generate messages.

Install it:
  → macOS (brew):     brew install llama.cpp
  → Windows (winget): winget install ggml-org.llama-cli
  → Linux / manual:   https://github.com/ggml-org/llama.cpp/releases
    then place llama-cli in %s or anywhere in PATH`,
		domain.ErrLlamaNotFound, filepath.Join(home, "bin"))
}

// runBinary executes the llama binary, folding stderr into the error.
// llama.cpp logs copiously to stderr on success; that output is discarded.
func runBinary(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 400 {
			msg = "..." + msg[len(msg)-400:]
		}
		if msg != "" {
			return "", fmt.Errorf("%v: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
