package dileptonqc

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/decibelcooper/dileptonqc/config"
	"github.com/decibelcooper/dileptonqc/event"
)

// Input formats recognised by OpenSource.
const (
	FormatLCIO  = "lcio"
	FormatProIO = "proio"
)

// FormatOf returns the input format of path from its extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".slcio", ".lcio":
		return FormatLCIO, nil
	case ".proio":
		return FormatProIO, nil
	}
	return "", fmt.Errorf("unknown input format of %s", path)
}

// OpenSource opens an event file with the reader matching its extension.
// LCIO tracks get their momentum from field and their TPC response from
// the configured parametrisation.
func OpenSource(path string, cfg *config.Config, field event.FieldSource, log *zap.Logger) (event.Source, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	if format == FormatProIO {
		src, err := event.OpenProIO(path, cfg.ProIOOptions())
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	opts := cfg.LCIOOptions()
	opts.Field = field
	opts.PID = cfg.TPC.Assign
	opts.Logger = log
	src, err := event.OpenLCIO(path, opts)
	if err != nil {
		return nil, err
	}
	return src, nil
}
