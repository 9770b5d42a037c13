package document

import (
	"strings"
	"unicode/utf8"
)

// separators are tried in order: paragraph breaks first, then line breaks,
// then word boundaries, and finally a raw sliding window for unbroken runs.
var separators = []string{"\n\n", "\n", " ", ""}

// Split cuts text into chunks of at most size runes, with consecutive chunks
// sharing up to overlap runes of trailing context. Splitting prefers natural
// boundaries (paragraphs, lines, words) and only cuts mid-word when a run of
// text has no separator at all.
func Split(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return splitRecursive(text, size, overlap, separators)
}

func splitRecursive(text string, size, overlap int, seps []string) []string {
	if utf8.RuneCountInString(text) <= size {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return slidingWindow(text, size, overlap)
	}

	// Pieces short enough to merge are batched; oversized pieces flush the
	// batch and recurse with finer separators, preserving document order.
	var chunks []string
	var batch []string
	for _, part := range strings.Split(text, sep) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= size {
			batch = append(batch, part)
			continue
		}
		if len(batch) > 0 {
			chunks = append(chunks, mergePieces(batch, sep, size, overlap)...)
			batch = nil
		}
		chunks = append(chunks, splitRecursive(part, size, overlap, rest)...)
	}
	if len(batch) > 0 {
		chunks = append(chunks, mergePieces(batch, sep, size, overlap)...)
	}
	return chunks
}

// pickSeparator returns the first separator present in text plus the finer
// separators that follow it. The empty separator always matches.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if s == "" {
			return "", nil
		}
		if strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}

// mergePieces greedily joins pieces up to size runes per chunk, carrying the
// trailing pieces that fit in the overlap budget into the next chunk.
func mergePieces(pieces []string, sep string, size, overlap int) []string {
	sepLen := utf8.RuneCountInString(sep)

	var chunks []string
	var window []string
	total := 0
	for _, p := range pieces {
		plen := utf8.RuneCountInString(p)
		if total > 0 && total+sepLen+plen > size {
			if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for len(window) > 0 && (total > overlap || total+sepLen+plen > size) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if total > 0 {
			total += sepLen
		}
		window = append(window, p)
		total += plen
	}
	if chunk := strings.TrimSpace(strings.Join(window, sep)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// slidingWindow is the last resort for text with no separators: fixed-size
// rune windows advanced by size-overlap.
func slidingWindow(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			chunks = append(chunks, part)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
