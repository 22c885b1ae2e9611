package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/job-recommender/internal/pipeline"
)

// SSE event names sent by POST /runs/stream.
const (
	eventStep     = "step"
	eventResult   = "result"
	eventError    = "error"
	eventComplete = "complete"
)

// runStream writes one run's progress as Server-Sent Events. Every event
// carries an increasing id so clients can tell whether they missed one.
type runStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

// newRunStream commits a 200 event-stream response. It fails when w cannot
// flush, before anything is written.
func newRunStream(w http.ResponseWriter) (*runStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &runStream{w: w, flusher: flusher}, nil
}

func (s *runStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Step forwards a pipeline progress event.
func (s *runStream) Step(event pipeline.ProgressEvent) error {
	return s.send(eventStep, event)
}

// Result sends the run summary.
func (s *runStream) Result(summary RunSummary) error {
	return s.send(eventResult, summary)
}

// Fail ends the stream with an error event. No complete event follows.
func (s *runStream) Fail(err error) error {
	return s.send(eventError, map[string]string{"error": err.Error()})
}

// Complete is the last event of a successful run.
func (s *runStream) Complete(runID string) error {
	return s.send(eventComplete, map[string]string{"run_id": runID, "status": "completed"})
}
