package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brizzai/codetrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "short", want: "****"},
		{in: "eyJhbGciOiJIUzI1NiJ9.payload.sig", want: "eyJh….sig"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Redact(tt.in))
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "codetrack.log")
	l, err := NewLogger(&config.LoggingConfig{
		Level:          "info",
		Format:         "json",
		OutputPath:     path,
		DisableConsole: true,
	})
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNewLogger_Invalid(t *testing.T) {
	_, err := NewLogger(&config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(&config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
