package agentic

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

const (
	eventPrefix  = "event:"
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// StatusFetcher retrieves the final status of a run. It is the fallback
// collaborator the collector uses when a drained stream carried no content.
type StatusFetcher interface {
	FetchRunStatus(ctx context.Context, runID string, identity []SessionIdentityItem) (*StatusResult, error)
}

// StreamCollector reduces one event stream to a single RunResult.
//
// The platform's "streaming" mode pushes status events, not content tokens:
// most events carry only sessionInfo and lifecycle flags, and the completed
// output often has to be fetched from the status endpoint afterwards. The
// collector makes a single forward pass over the stream, accumulates any
// text output it does find in arrival order, and falls back to Fetcher when
// the stream ends empty but identified its run.
type StreamCollector struct {
	// Fetcher serves the fallback status lookup. When nil the fallback is
	// skipped and an empty stream yields an empty result.
	Fetcher StatusFetcher

	// Logger receives diagnostics. The zero logger is silent.
	Logger *Logger
}

// Collect consumes r line by line until a [DONE] sentinel, an event flagged
// isLastEvent, or the end of the stream, and returns the normalized result.
// Malformed data payloads are skipped; transport errors abort the whole
// collection with no partial result.
func (sc *StreamCollector) Collect(ctx context.Context, r io.Reader) (*RunResult, error) {
	log := sc.Logger

	var (
		collected   []string
		runID       string
		lastSession *SessionInfo
		lineCount   int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

scan:
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, wrapError(KindStream, err, "process streaming response")
		}

		lineCount++
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, eventPrefix):
			log.Debug("stream event type",
				"line", lineCount,
				"event", strings.TrimSpace(line[len(eventPrefix):]),
			)

		case strings.HasPrefix(line, dataPrefix):
			payload := strings.TrimSpace(line[len(dataPrefix):])
			if payload == doneSentinel {
				log.Debug("stream done sentinel", "line", lineCount)
				break scan
			}

			var event RunEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				log.Warn("skipping malformed stream event",
					"line", lineCount,
					"error", err.Error(),
				)
				continue
			}

			if event.SessionInfo != nil {
				lastSession = event.SessionInfo
				if event.SessionInfo.RunID != "" {
					runID = event.SessionInfo.RunID
					log.Debug("captured run id", "run_id", runID)
				}
			}

			for _, item := range event.Output {
				if item.Type == "text" && item.Content != "" {
					collected = append(collected, item.Content)
				}
			}

			if event.IsLastEvent {
				log.Debug("stream last event", "line", lineCount)
				break scan
			}

		default:
			log.Debug("ignoring stream line", "line", lineCount)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, wrapError(KindStream, err, "process streaming response")
	}

	fullContent := strings.Join(collected, "")
	log.Debug("stream drained",
		"lines", lineCount,
		"content_items", len(collected),
		"content_len", len(fullContent),
	)

	if fullContent == "" && runID != "" && lastSession != nil && sc.Fetcher != nil {
		return sc.collectFromStatus(ctx, runID, lastSession)
	}

	if fullContent != "" {
		return &RunResult{
			Output:    []OutputItem{{Type: "text", Content: fullContent}},
			Streaming: true,
		}, nil
	}

	// Absence of content from both the stream and the fallback is a valid,
	// if unusual, terminal state.
	log.Warn("stream yielded no content", "lines", lineCount)
	return &RunResult{Output: []OutputItem{}, Streaming: true}, nil
}

// collectFromStatus fetches completed output from the status endpoint after
// an empty stream, scoped to the session the stream identified.
func (sc *StreamCollector) collectFromStatus(ctx context.Context, runID string, session *SessionInfo) (*RunResult, error) {
	sc.Logger.Info("stream carried no content, fetching output from status endpoint",
		"run_id", runID,
	)

	var identity []SessionIdentityItem
	if session.SessionReference != "" {
		identity = []SessionIdentityItem{{
			Type:  IdentitySessionReference,
			Value: session.SessionReference,
		}}
	}

	status, err := sc.Fetcher.FetchRunStatus(ctx, runID, identity)
	if err != nil {
		return nil, wrapError(KindStream, err, "process streaming response")
	}

	if !status.HasRunOutput() {
		return nil, newError(KindStream, 0,
			"process streaming response: status for run %s carries no output", runID)
	}

	items, err := status.RunOutput()
	if err != nil {
		return nil, wrapError(KindStream, err, "process streaming response")
	}
	if items == nil {
		items = []OutputItem{}
	}

	return &RunResult{
		Output:      items,
		SessionInfo: session,
		Streaming:   true,
	}, nil
}
