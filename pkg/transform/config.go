package transform

import (
	"encoding/json"
	"os"

	"github.com/mifi/commonify/pkg/errors"
)

type resolverOptions struct {
	Alias map[string]string `json:"alias"`
}

// Config renders the Babel configuration for an alias table.
func Config(aliases map[string]string) ([]byte, error) {
	if aliases == nil {
		aliases = map[string]string{}
	}
	cfg := map[string]any{
		"plugins": []any{
			[]any{"module-resolver", resolverOptions{Alias: aliases}},
			"@babel/plugin-transform-modules-commonjs",
		},
	}
	return json.MarshalIndent(cfg, "", "  ")
}

// WriteConfig writes the Babel configuration for aliases to path.
func WriteConfig(path string, aliases map[string]string) error {
	data, err := Config(aliases)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode babel config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write %s", path)
	}
	return nil
}
