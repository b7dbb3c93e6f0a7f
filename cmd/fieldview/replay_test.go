package main

import (
	"compress/gzip"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldview/fieldview/internal/dispatcher"
	"github.com/fieldview/fieldview/pkg/schema"
)

type countingLogger struct{}

func (countingLogger) Debug(string, ...any) {}
func (countingLogger) Info(string, ...any)  {}
func (countingLogger) Error(string, ...any) {}

const sampleLog = `{"channel":"poses","kind":"pose_array","receiveTime":{"sec":100,"nsec":0},"message":{"header":{"frame_id":"map"},"poses":[{"position":{"x":1},"orientation":{"w":1}}]}}
not json at all
{"channel":"poses","kind":"hologram","receiveTime":{"sec":101,"nsec":0},"message":{}}
{"channel":"map","kind":"grid","receiveTime":{"sec":102,"nsec":0},"message":{"info":{"resolution":0.1,"width":1,"height":1},"data":"AA=="}}
`

func newReplayDispatcher(t *testing.T) (*dispatcher.Dispatcher, map[string]int) {
	t.Helper()
	seen := map[string]int{}
	d, err := dispatcher.New(countingLogger{})
	require.NoError(t, err)
	for _, k := range []schema.Kind{schema.KindPoseArray, schema.KindGrid} {
		d.Register(k, func(e schema.MessageEvent) error {
			seen[e.Channel]++
			return nil
		})
	}
	return d, seen
}

func TestReplayFile(t *testing.T) {
	Logger = slog.Default()

	path := filepath.Join(t.TempDir(), "messages.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0644))

	d, seen := newReplayDispatcher(t)
	stats, err := replayFile(path, d)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Messages)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 1, seen["poses"])
	assert.Equal(t, 1, seen["map"])
}

func TestReplayFileGzip(t *testing.T) {
	Logger = slog.Default()

	path := filepath.Join(t.TempDir(), "messages.jsonl.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(sampleLog))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	d, seen := newReplayDispatcher(t)
	stats, err := replayFile(path, d)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Messages)
	assert.Equal(t, 2, seen["poses"]+seen["map"])
}

func TestReplayFileMissing(t *testing.T) {
	Logger = slog.Default()

	d, _ := newReplayDispatcher(t)
	_, err := replayFile(filepath.Join(t.TempDir(), "nope.jsonl"), d)
	require.Error(t, err)
}
