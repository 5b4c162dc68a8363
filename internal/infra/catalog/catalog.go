// Package catalog is the built-in registry of models gitscribe knows how to
// download. It maps a short id like "qwen2.5-coder" to the GGUF file on
// HuggingFace and the filename it is stored under locally.
// The table is fixed at compile time — no network or disk access here.
package catalog

// Entry describes one downloadable model artifact.
type Entry struct {
	ID          string // Unique id used in config and on the command line
	DisplayName string // Human-readable name for tables and prompts
	Description string // One-line description
	SizeBytes   int64  // Approximate download size (informational only)
	HFRepo      string // HuggingFace repo (e.g. "Qwen/Qwen2.5-Coder-1.5B-Instruct-GGUF")
	HFFile      string // GGUF filename inside the repo; also the local filename
}

// DefaultModel is the id used when no selection has been persisted.
const DefaultModel = "qwen2.5-coder"

// entries is the registry, in registration order. All() preserves this order.
var entries = []Entry{
	{
		ID:          "qwen2.5-coder",
		DisplayName: "Qwen 2.5 Coder 1.5B",
		Description: "Code-tuned, best commit messages for its size",
		SizeBytes:   1_120_000_000, // ~1.12 GB
		HFRepo:      "Qwen/Qwen2.5-Coder-1.5B-Instruct-GGUF",
		HFFile:      "qwen2.5-coder-1.5b-instruct-q4_k_m.gguf",
	},
	{
		ID:          "llama3.2",
		DisplayName: "Llama 3.2 1B",
		Description: "Compact general model, fast on CPU",
		SizeBytes:   750_000_000, // ~750 MB
		HFRepo:      "hugging-quants/Llama-3.2-1B-Instruct-Q4_K_M-GGUF",
		HFFile:      "llama-3.2-1b-instruct-q4_k_m.gguf",
	},
	{
		ID:          "phi3.5",
		DisplayName: "Phi 3.5 Mini 3.8B",
		Description: "Stronger summaries, larger download",
		SizeBytes:   2_390_000_000, // ~2.39 GB
		HFRepo:      "bartowski/Phi-3.5-mini-instruct-GGUF",
		HFFile:      "Phi-3.5-mini-instruct-Q4_K_M.gguf",
	},
	{
		ID:          "smollm2",
		DisplayName: "SmolLM2 360M",
		Description: "Ultra-tiny, instant responses, great for testing",
		SizeBytes:   386_000_000, // ~386 MB
		HFRepo:      "HuggingFaceTB/SmolLM2-360M-Instruct-GGUF",
		HFFile:      "smollm2-360m-instruct-q8_0.gguf",
	},
}

// Lookup finds an entry by id. Returns nil if the id is not in the catalog.
func Lookup(id string) *Entry {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i]
		}
	}
	return nil
}

// All returns every entry in registration order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// DownloadURL returns the HuggingFace direct download URL for the entry.
func (e *Entry) DownloadURL() string {
	return "https://huggingface.co/" + e.HFRepo + "/resolve/main/" + e.HFFile
}
