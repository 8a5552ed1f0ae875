package chunk

import "strings"

// chunkLineWindow is the fallback chunker used when no syntax parser is
// available for a language, the language is unsupported, or parsing
// raised.
//
// It walks lines accumulating a pending chunk. When adding the next line
// would exceed MaxChunkSize, the pending chunk is emitted (if it meets the
// MinChunkSize floor) as a text_block, and the next chunk is seeded with a
// suffix overlap of whole lines whose combined length stays within
// ChunkOverlap.
func chunkLineWindow(content, path, language string, opts Options) []CodeChunk {
	maxSize := opts.maxChunkSize()
	minSize := opts.minChunkSize()
	overlap := opts.chunkOverlap()

	lines := strings.Split(content, "\n")

	var chunks []CodeChunk
	var pending []string
	pendingLen := 0
	startLine := 1

	flush := func(endLine int) {
		if pendingLen == 0 {
			return
		}
		if pendingLen >= minSize {
			chunks = append(chunks, CodeChunk{
				Content:   strings.Join(pending, "\n"),
				Path:      path,
				StartLine: startLine,
				EndLine:   endLine,
				Language:  language,
				ChunkType: "text_block",
			})
		}
	}

	for i, line := range lines {
		lineNo := i + 1
		addedLen := len(line)
		if len(pending) > 0 {
			addedLen++ // the joining newline
		}

		if pendingLen > 0 && pendingLen+addedLen > maxSize {
			flush(lineNo - 1)

			// Seed the next chunk with a suffix overlap: the last whole
			// lines of the just-flushed chunk whose combined length stays
			// within ChunkOverlap.
			suffix, suffixLen, suffixStart := overlapSuffix(pending, startLine, lineNo-1, overlap)
			pending = suffix
			pendingLen = suffixLen
			startLine = suffixStart
			if pendingLen > 0 {
				addedLen = len(line) + 1
			} else {
				addedLen = len(line)
				startLine = lineNo
			}
		}

		if len(pending) == 0 {
			startLine = lineNo
		}
		pending = append(pending, line)
		pendingLen += addedLen
	}
	flush(len(lines))

	if len(chunks) == 0 && strings.TrimSpace(content) != "" {
		return []CodeChunk{moduleChunk(content, path, language)}
	}
	return chunks
}

// overlapSuffix returns the last whole lines of flushed (which spanned
// [flushStart, flushEnd]) whose combined length (including joining
// newlines) stays at or under maxOverlap, plus that suffix's total length
// and the line number its first retained line originally had.
func overlapSuffix(flushed []string, flushStart, flushEnd, maxOverlap int) ([]string, int, int) {
	if maxOverlap <= 0 || len(flushed) == 0 {
		return nil, 0, flushEnd + 1
	}

	var suffix []string
	total := 0
	firstIdx := len(flushed)
	for i := len(flushed) - 1; i >= 0; i-- {
		lineLen := len(flushed[i])
		addition := lineLen
		if len(suffix) > 0 {
			addition++
		}
		if total+addition > maxOverlap {
			break
		}
		suffix = append([]string{flushed[i]}, suffix...)
		total += addition
		firstIdx = i
	}

	if len(suffix) == 0 {
		return nil, 0, flushEnd + 1
	}
	return suffix, total, flushStart + firstIdx
}
