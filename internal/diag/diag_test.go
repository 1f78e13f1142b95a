package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	require.Equal(t, "info", SeverityInfo.String())
	require.Equal(t, "warning", SeverityWarning.String())
	require.Equal(t, "error", SeverityError.String())
	require.Equal(t, "fatal", SeverityFatal.String())
}

func TestRenderer_DiagnosticUncolorized(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{out: &buf, colorize: false}
	r.Diagnostic(SeverityError, "section %s: %v", "Code", "bad length")
	require.Equal(t, "error: section Code: bad length\n", buf.String())
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(false)
	require.NoError(t, err)
	require.NotNil(t, l)
}
