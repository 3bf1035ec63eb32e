package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akolanti/ragchat/internal/rag"
)

// sseWriter frames turn events as server-sent events and flushes each one.
type sseWriter struct {
	w          http.ResponseWriter
	controller *http.ResponseController
	started    bool
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, controller: http.NewResponseController(w)}
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

func (s *sseWriter) write(frame string) error {
	s.start()
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return err
	}
	return s.controller.Flush()
}

func (s *sseWriter) Chunk(event rag.ChunkEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.write("data: " + string(payload) + "\n\n")
}

func (s *sseWriter) End() error {
	return s.write("event: end\ndata: {}\n\n")
}

func (s *sseWriter) Error(message string) error {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return err
	}
	return s.write("event: error\ndata: " + string(payload) + "\n\n")
}
