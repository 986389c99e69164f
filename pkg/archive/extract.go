package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/mifi/commonify/pkg/errors"
)

// ExtractFile extracts the gzipped tarball at path into dest.
func ExtractFile(path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "open %s", path)
	}
	defer f.Close()
	return Extract(f, dest)
}

// Extract unpacks a gzipped tarball into dest. Regular files and directories
// are created; links and devices are skipped. Entries resolving outside dest
// are rejected.
func Extract(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "read gzip")
	}
	defer gz.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", dest)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "read tar")
		}

		target, err := entryPath(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", target)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

func entryPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New(errors.ErrCodeFilesystem, "tar entry %q escapes %s", name, dest)
	}
	return target, nil
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", filepath.Dir(path))
	}
	// npm tarballs sometimes carry 0000 modes; keep files readable.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", path)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write %s", path)
	}
	return f.Close()
}
