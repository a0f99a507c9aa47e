package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

// NoFileID marks spans that do not point into any file (synthesized symbols).
const NoFileID FileID = 0

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	FileNormalizedCRLF
	// FilePayload marks the built-in, trusted standard library sources.
	FilePayload
	// FileSuppressed marks files whose resolver errors are not reported
	// (the equivalent of an untyped/ignored file).
	FileSuppressed
)

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// IsPayload reports whether the file belongs to the trusted payload.
func (f *File) IsPayload() bool { return f != nil && f.Flags&FilePayload != 0 }

// IsSuppressed reports whether errors in the file are muted.
func (f *File) IsSuppressed() bool { return f != nil && f.Flags&FileSuppressed != 0 }

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
