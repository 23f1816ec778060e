// Package artifacts enumerates the files a build produced.
package artifacts

import (
	"io/fs"
	"path/filepath"
	"sort"

	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
)

// ListFiles returns every regular file under dir, sorted, with dir as prefix.
// It fails if dir does not exist or is not a directory.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir && !d.IsDir() {
			return ferrors.FileSystemError("not a directory").WithContext("path", dir).Build()
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "list build output").
			WithContext("path", dir).
			Build()
	}
	sort.Strings(files)
	return files, nil
}
