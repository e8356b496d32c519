package source

// FileID identifies one version of a file within a FileSet.
type FileID uint32

// FileFlags records how a file's content was obtained.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM                               // UTF-8 BOM был срезан
	FileNormalizedCRLF                       // \r\n заменены на \n
)

// File is one unit file as the compiler read it.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx holds the offset of every '\n' in Content.
	LineIdx []uint32
	// Hash is the SHA-256 of Content; the unit cache keys on it.
	Hash  [32]byte
	Flags FileFlags
}

// LineCol is a 1-based point in a file.
type LineCol struct {
	Line uint32
	Col  uint32
}
