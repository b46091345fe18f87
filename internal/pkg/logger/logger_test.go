package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(INFO)
	t.Cleanup(func() { SetOutput(os.Stderr); SetLevel(INFO) })
	return &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestWith(t *testing.T) {
	buf := capture(t)

	With("run_id", "abc").Info("analysis complete", "offers", 3)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "analysis complete", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "3", entry["offers"])
}

func TestLevelFilter(t *testing.T) {
	buf := capture(t)
	Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestRedaction(t *testing.T) {
	buf := capture(t)
	Info("digest sent", "recipient", "john.doe@example.com", "note", "cc ab@example.com")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "jo***@example.com", entry["recipient"])
	assert.Equal(t, "cc ***@example.com", entry["note"])
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{" ops@example.com ", "op***@example.com"},
		{"not-an-address", "***@***"},
		{"a@b@c", "***@***"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactEmail(tt.in), tt.in)
	}
	assert.Equal(t, []string{"op***@example.com", "***@x.io"}, RedactEmails([]string{"ops@example.com", "me@x.io"}))
}

func TestRedaction_OpaqueRecipient(t *testing.T) {
	buf := capture(t)
	Info("digest sent", "recipient", "ops-team")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "***", entry["recipient"])
}
