package upload

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"path"
	"strings"
)

const archiveExtension = ".zip"

// buildArchive zips paths into a single file called name. Directories are
// added recursively; with directoryArchive their entries keep the
// directory name as top level folder, otherwise they land in the root.
// Plain files always land in the root.
func buildArchive(fsys fs.FS, paths []string, name string, directoryArchive bool) (*File, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	for _, p := range paths {
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return nil, readError(p, err)
		}

		if !info.IsDir() {
			if err := addArchiveFile(zw, fsys, p, path.Base(p)); err != nil {
				return nil, err
			}
			continue
		}

		prefix := ""
		if directoryArchive {
			prefix = path.Base(p)
		}

		if err := addArchiveDir(zw, fsys, p, prefix); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing archive %s: %w", ErrReadFile, name, err)
	}

	return NewFile(name, buf.Bytes()), nil
}

func addArchiveDir(zw *zip.Writer, fsys fs.FS, root, prefix string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return readError(p, err)
		}

		entry := path.Join(prefix, relativePath(root, p))

		if d.IsDir() {
			if entry == "" {
				return nil
			}
			_, err := zw.Create(entry + "/")
			return err
		}

		if !d.Type().IsRegular() {
			// symlinks are followed by fs.Stat; anything else cannot be archived
			info, err := fs.Stat(fsys, p)
			if err != nil {
				return readError(p, err)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("%w: only regular files and directories can be archived: %s", ErrReadFile, p)
			}
		}

		return addArchiveFile(zw, fsys, p, entry)
	})
}

func addArchiveFile(zw *zip.Writer, fsys fs.FS, p, entry string) error {
	content, err := fs.ReadFile(fsys, p)
	if err != nil {
		return readError(p, err)
	}

	w, err := zw.Create(entry)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadFile, entry, err)
	}

	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReadFile, entry, err)
	}

	return nil
}

func relativePath(root, p string) string {
	switch {
	case p == root:
		return ""
	case root == ".":
		return p
	default:
		return strings.TrimPrefix(p, root+"/")
	}
}

// RandomArchiveName returns eight random letters followed by ".zip".
func RandomArchiveName() string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var sb strings.Builder
	for range 8 {
		sb.WriteByte(letters[rand.IntN(len(letters))])
	}
	sb.WriteString(archiveExtension)
	return sb.String()
}
