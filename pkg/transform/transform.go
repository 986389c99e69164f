// Package transform converts an extracted ES module package to CommonJS.
//
// The conversion is delegated to Babel: a config file is generated with
// @babel/plugin-transform-modules-commonjs and a module-resolver alias table
// that rewrites imports of renamed dependencies, the configured command
// transpiles the package into a sibling directory, and the result is copied
// back over the package so non-JavaScript files stay in place.
//
//	b := transform.NewBabel(nil, logger)
//	err := b.Transform(ctx, transform.Request{
//	    Dir:     "left-pad-1.3.0",
//	    Src:     "left-pad-1.3.0/package",
//	    Aliases: map[string]string{"is-number": "@acme/is-number"},
//	})
package transform

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mifi/commonify/pkg/errors"
)

// DefaultCommand runs the Babel CLI through npx.
var DefaultCommand = []string{"npx", "babel"}

const (
	configFile    = "babelrc.json"
	transpiledDir = "transpiled"
)

// Request describes one package to convert.
type Request struct {
	// Dir is the per-version work directory; the Babel config and the
	// transpiled tree are written here.
	Dir string
	// Src is the extracted package, rewritten in place.
	Src string
	// Aliases maps original dependency names to their renamed counterparts.
	Aliases map[string]string
}

// Babel runs a Babel-compatible command line.
type Babel struct {
	command []string
	logger  *log.Logger
}

// NewBabel creates a transformer running command, which receives
// "<src> -d <out> --config-file <config>" as extra arguments.
// An empty command selects [DefaultCommand]; a nil logger selects log.Default().
func NewBabel(command []string, logger *log.Logger) *Babel {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Babel{command: command, logger: logger}
}

// Transform converts req.Src in place.
func (b *Babel) Transform(ctx context.Context, req Request) error {
	cfg := filepath.Join(req.Dir, configFile)
	out := filepath.Join(req.Dir, transpiledDir)

	if err := WriteConfig(cfg, req.Aliases); err != nil {
		return err
	}

	args := append(append([]string{}, b.command[1:]...), req.Src, "-d", out, "--config-file", cfg)
	b.logger.Debug("transpiling", "cmd", b.command[0], "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.command[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return errors.Wrap(errors.ErrCodeTransform, err, "%s %s: %s", b.command[0], req.Src, msg)
	}
	if s := strings.TrimSpace(stdout.String()); s != "" {
		b.logger.Debug(s)
	}

	return CopyTree(out, req.Src)
}
