// Package archive downloads and unpacks npm package tarballs.
//
// Each package version gets its own directory under the work dir, named after
// the package and version ("is-number-7.0.0", "@acme/util" becomes
// "acme-util-1.0.0"). The tarball is kept next to it as "<dir>.tgz" and reused
// on later runs. A directory left behind by an earlier run is moved aside with
// a timestamp suffix instead of being deleted, so repeated runs never corrupt
// or lose earlier output.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mifi/commonify/pkg/errors"
	"github.com/mifi/commonify/pkg/integrations"
	"github.com/mifi/commonify/pkg/manifest"
)

// PackageDir is the directory inside a tarball that holds the package.
const PackageDir = "package"

// Package is an extracted package version.
type Package struct {
	// Dir is the per-version work directory.
	Dir string
	// Root is the extracted package, Dir/package.
	Root string
	// Manifest is the package.json found in Root.
	Manifest *manifest.Manifest
}

// Fetcher downloads tarballs into a work directory and extracts them.
type Fetcher struct {
	client  *integrations.Client
	workDir string
	logger  *log.Logger
	now     func() time.Time
}

// NewFetcher creates a Fetcher writing below workDir.
// If logger is nil, log.Default() is used.
func NewFetcher(client *integrations.Client, workDir string, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{client: client, workDir: workDir, logger: logger, now: time.Now}
}

// DirName returns the work directory name for a package version. Scoped
// names flatten to "scope__name" so they cannot collide with unscoped ones.
func DirName(name, version string) string {
	if rest, ok := strings.CutPrefix(name, "@"); ok {
		name = strings.Replace(rest, "/", "__", 1)
	}
	return name + "-" + version
}

// Fetch makes the tarball described by m available as an extracted tree.
func (f *Fetcher) Fetch(ctx context.Context, m *manifest.Manifest) (*Package, error) {
	if err := errors.ValidatePackageName(m.Name); err != nil {
		return nil, err
	}
	if m.Dist == nil || m.Dist.Tarball == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "%s@%s has no dist.tarball", m.Name, m.Version)
	}

	dir := filepath.Join(f.workDir, DirName(m.Name, m.Version))
	tgz := dir + ".tgz"

	if err := f.moveAside(dir); err != nil {
		return nil, err
	}

	if _, err := os.Stat(tgz); err == nil {
		f.logger.Debug("reusing tarball", "path", tgz)
	} else {
		f.logger.Debug("downloading", "url", m.Dist.Tarball)
		if err := f.download(ctx, m.Dist.Tarball, tgz); err != nil {
			return nil, err
		}
	}

	if err := ExtractFile(tgz, dir); err != nil {
		return nil, err
	}

	root := filepath.Join(dir, PackageDir)
	src, err := manifest.Read(root)
	if err != nil {
		return nil, err
	}
	return &Package{Dir: dir, Root: root, Manifest: src}, nil
}

func (f *Fetcher) moveAside(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	stale := dir + "-" + strconv.FormatInt(f.now().UnixMilli(), 10)
	f.logger.Debug("moving aside", "from", dir, "to", stale)
	if err := os.Rename(dir, stale); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "move aside %s", dir)
	}
	return nil
}

// download writes to a temporary file first so an interrupted download never
// leaves a truncated tarball that later runs would reuse.
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", filepath.Dir(dest))
	}
	tmp := dest + ".part"
	err := f.client.Download(ctx, url, func() (io.WriteCloser, error) {
		return os.Create(tmp)
	})
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("download %s: %w", url, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "store %s", dest)
	}
	return nil
}
