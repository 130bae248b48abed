package pipeline

const (
	defaultChunkSize    = 4000
	defaultChunkOverlap = 400
)

// Chunk splits text into rune-safe pieces of at most size characters,
// each overlapping the previous one by overlap characters so sentences
// cut at a boundary still appear whole in one chunk.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 10
		}
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
