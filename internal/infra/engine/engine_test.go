package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gitscribe/gitscribe/internal/domain"
)

func newFakeGenerator(output string, runErr error) (*Generator, *[][]string) {
	var calls [][]string
	g := &Generator{
		bin:  "/fake/llama-cli",
		opts: Options{MaxTokens: 256, Temperature: 0.2, MaxDiffBytes: 24 * 1024},
		run: func(ctx context.Context, bin string, args []string) (string, error) {
			calls = append(calls, append([]string{bin}, args...))
			return output, runErr
		},
	}
	return g, &calls
}

func TestGenerate(t *testing.T) {
	g, calls := newFakeGenerator("fix: close file before rename\n[end of text]", nil)

	var phases []string
	msg, err := g.Generate(context.Background(), "/models/m.gguf", "diff --git a/x b/x\n+1\n",
		func(s string) { phases = append(phases, s) })
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if msg != "fix: close file before rename" {
		t.Errorf("msg = %q", msg)
	}

	if len(*calls) != 1 {
		t.Fatalf("run called %d times", len(*calls))
	}
	args := (*calls)[0]
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-m /models/m.gguf") {
		t.Errorf("model path missing from args: %v", args)
	}
	if !strings.Contains(joined, "-n 256") {
		t.Errorf("token budget missing from args: %v", args)
	}

	if len(phases) != 2 || phases[0] != "loading model" || phases[1] != "generating" {
		t.Errorf("phases = %v", phases)
	}
}

func TestGenerate_EmptyOutput(t *testing.T) {
	g, _ := newFakeGenerator("\n\n", nil)
	_, err := g.Generate(context.Background(), "/m.gguf", "diff", nil)
	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Errorf("error = %v, want ErrEmptyMessage", err)
	}
}

func TestGenerate_RunFails(t *testing.T) {
	g, _ := newFakeGenerator("", errors.New("ggml assert failed"))
	_, err := g.Generate(context.Background(), "/m.gguf", "diff", nil)
	if err == nil || !strings.Contains(err.Error(), "llama-cli") {
		t.Errorf("error = %v, want binary name in context", err)
	}
}

func TestNew_ExplicitBinSkipsDetection(t *testing.T) {
	g, err := New(t.TempDir(), Options{Bin: "/opt/llama/llama-cli"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if g.bin != "/opt/llama/llama-cli" {
		t.Errorf("bin = %q", g.bin)
	}
}
