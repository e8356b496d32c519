package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"

	"fortio.org/safecast"
)

// FileSet keeps the unit files read during one compiler run. It is safe for
// concurrent use; Files are immutable once added.
type FileSet struct {
	mu      sync.RWMutex
	files   []*File
	index   map[string]FileID // path -> последняя версия
	baseDir string
}

func NewFileSet() *FileSet {
	return NewFileSetWithBase("")
}

// NewFileSetWithBase создаёт FileSet, пути в котором показываются
// относительно baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{index: make(map[string]FileID), baseDir: baseDir}
}

func (fileSet *FileSet) BaseDir() string {
	return fileSet.baseDir
}

// Add stores content under path and returns a new FileID, even when path
// was added before. Lookups by path see the newest version.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	f := &File{
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	f.ID = FileID(n)
	fileSet.files = append(fileSet.files, f)
	fileSet.index[f.Path] = f.ID
	return f.ID
}

// Load reads path, strips a UTF-8 BOM and folds CRLF line endings before
// calling Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- unit paths come from the command line
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var flags FileFlags
	content, hadBOM := removeBOM(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content such as test input.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

func (fileSet *FileSet) Len() int {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	return len(fileSet.files)
}

// Get returns the file with the given ID, or nil.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return fileSet.files[id]
}

// GetLatest returns the newest file ID stored for path.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Line returns line n (1-based) of the newest version of path.
func (fileSet *FileSet) Line(path string, n uint32) (string, bool) {
	id, ok := fileSet.GetLatest(path)
	if !ok {
		return "", false
	}
	return fileSet.Get(id).GetLine(n), true
}

// PosAt converts a byte offset range of a file into a Pos.
func (fileSet *FileSet) PosAt(id FileID, start, end int) Pos {
	f := fileSet.Get(id)
	if f == nil {
		return UnknownPos
	}
	s, err := safecast.Conv[uint32](max(start, 0))
	if err != nil {
		return Pos{Path: f.Path}
	}
	e, err := safecast.Conv[uint32](max(end, start, 0))
	if err != nil {
		e = s
	}
	return Range(f.Path, toLineCol(f.LineIdx, s), toLineCol(f.LineIdx, e))
}

// GetLine returns line n (1-based) without its newline; "" past the end.
func (f *File) GetLine(n uint32) string {
	if n == 0 {
		return ""
	}
	// LineIdx хранит смещения '\n', строка n начинается после (n-1)-го
	i := int(n) - 1
	if i > len(f.LineIdx) {
		return ""
	}
	start := 0
	if i > 0 {
		start = int(f.LineIdx[i-1]) + 1
	}
	end := len(f.Content)
	if i < len(f.LineIdx) {
		end = int(f.LineIdx[i])
	}
	if start > len(f.Content) || (start == len(f.Content) && i > 0) {
		return ""
	}
	return string(f.Content[start:end])
}
