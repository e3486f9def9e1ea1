package dileptonqc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]string{
		"run/ee.slcio":    FormatLCIO,
		"ee.LCIO":         FormatLCIO,
		"/data/gen.proio": FormatProIO,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatOf("AnalysisResults.root")
	assert.Error(t, err)
}

func TestOpenSourceRejectsUnknownFormat(t *testing.T) {
	_, err := OpenSource("events.txt", nil, nil, nil)
	assert.Error(t, err)
}
