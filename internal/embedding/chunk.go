package embedding

import "strings"

// DefaultChunkSize is the maximum number of characters per chunk.
const DefaultChunkSize = 1500

// ChunkText splits text into chunks of at most maxChars characters,
// preferring to break at paragraph and sentence boundaries. Whitespace-only
// input yields no chunks.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	for len(text) > maxChars {
		cut := splitPoint(text, maxChars)
		chunk := strings.TrimSpace(text[:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// splitPoint picks where to cut the next chunk: the last paragraph break
// within the window, then the last sentence end, then the last space, then
// a hard cut at maxChars.
func splitPoint(text string, maxChars int) int {
	window := text[:maxChars]

	if idx := strings.LastIndex(window, "\n\n"); idx > maxChars/2 {
		return idx + 2
	}
	for _, sep := range []string{". ", "! ", "? ", ".\n"} {
		if idx := strings.LastIndex(window, sep); idx > maxChars/2 {
			return idx + len(sep)
		}
	}
	if idx := strings.LastIndexByte(window, ' '); idx > maxChars/2 {
		return idx + 1
	}
	return maxChars
}
