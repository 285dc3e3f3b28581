package facts

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
)

// WorldWritable walks root and returns regular files with the other-write
// permission bit set. Unreadable subdirectories are skipped; an unreadable
// root is an error.
func (h *HostSource) WorldWritable(ctx context.Context, root string) ([]WritableFile, error) {
	var files []WritableFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().Perm()&0o002 != 0 {
			files = append(files, WritableFile{Mountpoint: root, Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
