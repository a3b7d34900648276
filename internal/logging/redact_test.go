package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encodeWith(t *testing.T, cfg RedactionConfig, withFields []zap.Field, fields ...zap.Field) string {
	t.Helper()
	enc := NewRedactingEncoder(newEncoder("json"), cfg)
	var e zapcore.Encoder = enc
	if len(withFields) > 0 {
		e = enc.Clone()
		for _, f := range withFields {
			f.AddTo(e)
		}
	}
	buf, err := e.EncodeEntry(zapcore.Entry{Message: "entry"}, fields)
	require.NoError(t, err)
	defer buf.Free()
	return buf.String()
}

func TestRedactingEncoder_CallFields(t *testing.T) {
	cfg := NewDefaultConfig().Redaction

	out := encodeWith(t, cfg, nil,
		zap.String("reflection", "today I learned Go"),
		zap.String("Password", "hunter2"),
		zap.String("name", "Ada"),
		zap.Int("token", 42),
	)

	assert.Contains(t, out, `"reflection":"[REDACTED:18]"`)
	assert.Contains(t, out, `"Password":"[REDACTED:7]"`)
	assert.Contains(t, out, `"token":"[REDACTED]"`)
	assert.Contains(t, out, `"name":"Ada"`)
	assert.NotContains(t, out, "today I learned Go")
	assert.NotContains(t, out, "hunter2")
}

func TestRedactingEncoder_WithFields(t *testing.T) {
	cfg := NewDefaultConfig().Redaction

	out := encodeWith(t, cfg,
		[]zap.Field{
			zap.String("reflection", "secret thoughts"),
			zap.ByteString("authorization", []byte("Bearer x")),
			zap.Any("text", map[string]string{"a": "b"}),
			zap.String("id", "20250314092653"),
		},
	)

	assert.Contains(t, out, `"reflection":"[REDACTED:15]"`)
	assert.Contains(t, out, `"authorization":"[REDACTED:8]"`)
	assert.Contains(t, out, `"text":"[REDACTED]"`)
	assert.Contains(t, out, `"id":"20250314092653"`)
	assert.NotContains(t, out, "secret thoughts")
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	out := encodeWith(t, RedactionConfig{Enabled: false, Fields: []string{"reflection"}}, nil,
		zap.String("reflection", "visible"))

	assert.Contains(t, out, `"reflection":"visible"`)
}

func TestRedactedString(t *testing.T) {
	f := RedactedString("reflection", "abcd")
	assert.Equal(t, "reflection", f.Key)
	assert.Equal(t, "[REDACTED:4]", f.String)
}
