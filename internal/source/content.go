package source

import (
	"bytes"
	"fmt"
	"path/filepath"

	"fortio.org/safecast"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cleanLog prepares captured log bytes for the lexer. Logs copied off a
// serial console carry CRLF endings, and pstore/ramoops dumps are padded
// with NUL bytes up to the record size.
func cleanLog(content []byte) ([]byte, FileFlags) {
	var flags FileFlags
	if rest, ok := bytes.CutPrefix(content, utf8BOM); ok {
		content = rest
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		flags |= FileNormalizedCRLF
	}
	if trimmed := bytes.TrimRight(content, "\x00"); len(trimmed) != len(content) {
		content = trimmed
		flags |= FileTrimmedNUL
	}
	return content, flags
}

// lineOffsets returns the offset of every '\n' in content.
func lineOffsets(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for off, b := range content {
		if b != '\n' {
			continue
		}
		o, err := safecast.Conv[uint32](off)
		if err != nil {
			panic(fmt.Errorf("log offset overflow: %w", err))
		}
		out = append(out, o)
	}
	return out
}

func cleanPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
