// Copyright 2026 The DocVault Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logsink forwards access-log entries to an external collector
// over HTTP. Forwarding is asynchronous and lossy: when the buffer is
// full, entries are dropped rather than blocking a request.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Entry is one access-log record
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	DurationMS int64     `json:"duration_ms"`
	RemoteAddr string    `json:"remote_addr"`
	UserAgent  string    `json:"user_agent,omitempty"`
	Username   string    `json:"username,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Sink buffers entries and ships them to the collector from a single
// background worker.
type Sink struct {
	url     string
	client  *http.Client
	entries chan Entry
	dropped int64
	mu      sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New creates a sink posting to url. bufferSize bounds the in-flight
// queue.
func New(url string, timeout time.Duration, bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Sink{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		entries: make(chan Entry, bufferSize),
	}
}

// Start launches the forwarding worker.
func (s *Sink) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case entry := <-s.entries:
				s.forward(ctx, entry)
			}
		}
	}()
}

// Record queues an entry. It never blocks; a full buffer drops the
// entry and counts it.
func (s *Sink) Record(entry Entry) {
	select {
	case s.entries <- entry:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

// Dropped returns the number of entries discarded so far.
func (s *Sink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops the worker. Queued entries may be lost.
func (s *Sink) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sink) forward(ctx context.Context, entry Entry) {
	body, err := json.Marshal(entry)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Debug("log sink forward failed", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.Debug("log sink rejected entry", slog.String("status", fmt.Sprintf("%d", resp.StatusCode)))
	}
}
