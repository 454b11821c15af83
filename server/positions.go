package server

import (
	"strings"

	"go.lsp.dev/protocol"
)

// lineIndex converts byte offsets from the parser into LSP line and
// character positions for one document snapshot.
type lineIndex struct {
	starts []int
	length int
}

func newLineIndex(text string) *lineIndex {
	idx := &lineIndex{starts: []int{0}, length: len(text)}
	for pos := 0; ; {
		nl := strings.IndexByte(text[pos:], '\n')
		if nl < 0 {
			break
		}
		pos += nl + 1
		idx.starts = append(idx.starts, pos)
	}
	return idx
}

func (idx *lineIndex) position(offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > idx.length {
		offset = idx.length
	}
	line := 0
	for line+1 < len(idx.starts) && idx.starts[line+1] <= offset {
		line++
	}
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(offset - idx.starts[line]),
	}
}

func (idx *lineIndex) rangeFor(start, end int) protocol.Range {
	if end < start {
		end = start
	}
	return protocol.Range{Start: idx.position(start), End: idx.position(end)}
}
