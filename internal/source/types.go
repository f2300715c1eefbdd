package source

type (
	// FileID uniquely identifies a log file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a log file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	// FileTrimmedNUL: trailing NUL padding of a pstore dump was dropped.
	FileTrimmedNUL
)

// File captures metadata and content for a single captured log.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Hash    [32]byte
	Flags   FileFlags
}
