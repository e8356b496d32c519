package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gxpc/internal/unitfile"
)

// ListUnits expands paths into unit files. Directories are walked for
// files ending in unitfile.Extension; explicit files are taken as is.
// The result is sorted and free of duplicates.
func ListUnits(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, filepath.Clean(p))
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// скрытые каталоги (.git и т.п.) пропускаем
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, unitfile.Extension) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// сортируем для детерминированного порядка
	slices.Sort(files)
	return slices.Compact(files), nil
}
