package prepare

import "unicode"

// Chunk is an overlapping window of the decoded text. Offset is the rune
// index of the window start in the full text.
type Chunk struct {
	Index  int
	Offset int
	Text   string
}

// Split cuts text into windows of at most size runes, each overlapping the
// previous by overlap runes. A window end is moved back to the last
// whitespace in its second half when one exists. Text that fits in one
// window yields a single chunk.
func Split(text string, size, overlap int) []Chunk {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []Chunk{{Index: 0, Offset: 0, Text: text}}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := min(start+size, len(runes))
		if end < len(runes) {
			end = breakPoint(runes, start, end)
		}

		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: start,
			Text:   string(runes[start:end]),
		})

		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

func breakPoint(runes []rune, start, end int) int {
	floor := start + (end-start)/2
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
