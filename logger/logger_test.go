package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alexhholmes/marktree"
)

func TestZap(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZap(zap.New(core))

	l.Info("mark tree cleared", "keys", 3, "nodes", 1)
	l.Warn("restore pair: half missing", "ns", uint32(1))
	l.Error("mark tree check failed", "keys", 0)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "mark tree cleared", entries[0].Message)
	assert.Equal(t, Name, entries[0].LoggerName)
	assert.Equal(t, int64(3), entries[0].ContextMap()["keys"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestLogrus(t *testing.T) {
	t.Parallel()

	base, hook := logrustest.NewNullLogger()
	l := NewLogrus(base)

	l.Warn("restore pair: half missing", "ns", 2, "start", true)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "restore pair: half missing", entry.Message)
	assert.Equal(t, logrus.Fields{"ns": 2, "start": true}, entry.Data)

	l.Info("dangling", "key")
	assert.Equal(t, logrus.Fields{"key": nil}, hook.LastEntry().Data)

	l.Error("odd keys", 7, "x")
	assert.Equal(t, logrus.Fields{"7": "x"}, hook.LastEntry().Data)
	assert.Len(t, hook.AllEntries(), 3)
}

func TestTreeLogsThroughAdapter(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	tree := marktree.New(marktree.WithLogger(NewZap(zap.New(core))))
	tree.Put(marktree.Key{Pos: marktree.Pos{Row: 1}, NS: 1, ID: 1})
	tree.Clear()

	cleared := logs.FilterMessage("mark tree cleared").All()
	require.Len(t, cleared, 1)
	assert.Equal(t, int64(1), cleared[0].ContextMap()["keys"])
}
