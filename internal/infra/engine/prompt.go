package engine

import "strings"

// promptHeader instructs the model. Small instruct models follow short,
// concrete rules far better than long style guides.
const promptHeader = `You are an expert developer writing a git commit message for the staged changes below.

Rules:
- First line: imperative mood, at most 72 characters, no trailing period.
- Optionally add a blank line and a short body explaining why.
- Output only the commit message, nothing else.

Staged diff:
`

// BuildPrompt assembles the generation prompt, truncating oversized diffs to
// maxDiffBytes. Truncation prefers a file boundary so the model never sees a
// hunk cut mid-line.
func BuildPrompt(diff string, maxDiffBytes int) string {
	return promptHeader + TruncateDiff(diff, maxDiffBytes) + "\n\nCommit message:"
}

// TruncateDiff caps diff at maxBytes. When the cut would land inside a file's
// hunks, it backs up to the last "diff --git" boundary before the limit, so
// dropped content is whole files, not half a hunk. A marker notes the cut.
func TruncateDiff(diff string, maxBytes int) string {
	if maxBytes <= 0 || len(diff) <= maxBytes {
		return diff
	}

	cut := diff[:maxBytes]
	if idx := strings.LastIndex(cut, "\ndiff --git "); idx > 0 {
		cut = cut[:idx]
	} else if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "\n\n[diff truncated: staged changes exceed the prompt budget]"
}

// CleanMessage extracts a usable commit message from raw model output:
// strips end-of-text markers, code fences, surrounding quotes, and stray
// blank padding. Returns "" when nothing survives.
func CleanMessage(raw string) string {
	msg := raw

	// llama.cpp appends an end marker in some configurations.
	if idx := strings.Index(msg, "[end of text]"); idx >= 0 {
		msg = msg[:idx]
	}
	msg = strings.TrimSpace(msg)

	// Models love to wrap answers in fences despite instructions.
	if strings.HasPrefix(msg, "```") {
		msg = strings.TrimPrefix(msg, "```")
		if idx := strings.Index(msg, "\n"); idx >= 0 && !strings.ContainsAny(msg[:idx], " \t") {
			msg = msg[idx+1:] // drop a language tag like "text"
		}
		if idx := strings.LastIndex(msg, "```"); idx >= 0 {
			msg = msg[:idx]
		}
		msg = strings.TrimSpace(msg)
	}

	// Surrounding quotes around the whole message.
	if len(msg) >= 2 && msg[0] == '"' && msg[len(msg)-1] == '"' {
		msg = strings.TrimSpace(msg[1 : len(msg)-1])
	}

	// Collapse runs of blank lines left by chat templates.
	lines := strings.Split(msg, "\n")
	var out []string
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
