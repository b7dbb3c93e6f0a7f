package main

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fieldview/fieldview/internal/dispatcher"
	"github.com/fieldview/fieldview/pkg/schema"
)

// envelope is one line of a recorded message log.
type envelope struct {
	Channel     string          `json:"channel"`
	Kind        string          `json:"kind"`
	ReceiveTime schema.Time     `json:"receiveTime"`
	Message     json.RawMessage `json:"message"`
}

type replayStats struct {
	Messages int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// maxLineBytes bounds a single log line; embedded PNG grids are the largest
// payloads we see and stay well under this.
const maxLineBytes = 64 * 1024 * 1024

// replayFile streams a JSONL message log through the dispatcher, one event
// per line. Lines that fail to parse are skipped; handler failures are
// counted but never stop the replay.
func replayFile(path string, d *dispatcher.Dispatcher) (replayStats, error) {
	var stats replayStats
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return stats, fmt.Errorf("failed to open message log: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return stats, fmt.Errorf("failed to open gzip message log: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			Logger.Warn("Skipping malformed log line", "line", lineNo, "error", err)
			stats.Skipped++
			continue
		}
		kind, err := schema.ParseKind(env.Kind)
		if err != nil {
			Logger.Warn("Skipping log line with unknown kind", "line", lineNo, "kind", env.Kind)
			stats.Skipped++
			continue
		}
		msg, err := schema.DecodeMessage(kind, env.Message)
		if err != nil {
			Logger.Warn("Skipping undecodable message", "line", lineNo, "channel", env.Channel, "error", err)
			stats.Skipped++
			continue
		}

		stats.Messages++
		ev := schema.MessageEvent{
			Channel:     env.Channel,
			Kind:        kind,
			ReceiveTime: time.Unix(int64(env.ReceiveTime.Sec), int64(env.ReceiveTime.Nsec)),
			Message:     msg,
		}
		if err := d.Dispatch(ev); err != nil {
			stats.Failed++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed reading message log: %w", err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
