package utils

import "unicode"

// SplitText splits a long string into chunks of roughly chunkSize runes with
// overlap runes repeated at each boundary. A cut is moved back to the nearest
// whitespace when one exists in the last quarter of the window.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	total := len(runes)
	start := 0

	for start < total {
		end := start + chunkSize
		if end >= total {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := end
		for i := end; i > end-chunkSize/4; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}

		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}
