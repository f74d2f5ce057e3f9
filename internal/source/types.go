package source

import "os"

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	// FileTrailingNewline marks content that ended with a newline before splitting.
	FileTrailingNewline
)

// File captures metadata and content for a single source file.
// Content is normalized (no BOM, LF line endings); Lines is Content split on '\n'
// without the terminating empty element.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Lines   []string
	Hash    [32]byte
	Flags   FileFlags
	Mode    os.FileMode
}
