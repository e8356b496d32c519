package source

import (
	"bytes"
	"path/filepath"
	"slices"

	"fortio.org/safecast"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
	crlf    = []byte("\r\n")
)

// normalizeCRLF folds "\r\n" into "\n"; a lone '\r' stays.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, crlf) {
		return content, false
	}
	return bytes.ReplaceAll(content, crlf, []byte{'\n'}), true
}

func removeBOM(content []byte) ([]byte, bool) {
	return bytes.CutPrefix(content, utf8BOM)
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b != '\n' {
			continue
		}
		off, err := safecast.Conv[uint32](i)
		if err != nil {
			break
		}
		out = append(out, off)
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	// число '\n' строго до off и есть номер строки (0-based)
	n, _ := slices.BinarySearch(lineIdx, off)
	var lineStart uint32
	if n > 0 {
		lineStart = lineIdx[n-1] + 1
	}
	line, err := safecast.Conv[uint32](n + 1)
	if err != nil {
		line = 0
	}
	return LineCol{Line: line, Col: off - lineStart + 1}
}

// normalizePath gives every path one spelling across platforms.
func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
