// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package logpipe implements the buffered audit/log pipeline. Producers
// emit typed events into per-category streams; events are normalized,
// mirrored to a colored console view, merged, and bulk-inserted on a
// fixed time window. Admin events are observed only and never persisted.
package logpipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gravitational/trace"

	"github.com/yuno-tw/stb-api/internal/model"
)

// Sink persists a batch of normalized log rows.
type Sink interface {
	InsertLogBatch(ctx context.Context, logs []*model.Log) error
}

// Fields is the optional option bag accepted by every producer. A
// generic UserID is folded into OperatorUserID/TargetUserID when those
// are unset. Err carries a fault trace; Args carries a structured
// payload. Both are merged into the message during normalization.
type Fields struct {
	TargetUserID   int64
	OperatorUserID int64
	UserID         int64
	CreatedAt      time.Time
	PodName        string
	Version        string
	Err            error
	Args           map[string]any
}

// Config holds pipeline configuration.
type Config struct {
	BufferTime time.Duration // Batch flush window, default 5s
	Debug      []string      // Console category allowlist, "*" passes all
	PodName    string        // Process identity defaults
	Version    string
	Output     io.Writer // Console destination, default os.Stdout
}

type event struct {
	message string
	fields  Fields
}

// stream is one category's unbounded FIFO queue. Producers append under
// the mutex and nudge the drain goroutine through the wake channel, so
// a push never blocks regardless of consumer speed.
type stream struct {
	category string
	mu       sync.Mutex
	queue    []event
	wake     chan struct{}
}

func newStream(category string) *stream {
	return &stream{category: category, wake: make(chan struct{}, 1)}
}

func (s *stream) push(e event) {
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *stream) take() []event {
	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()
	return q
}

// Pipeline is the in-process event bus. All producer methods are
// fire-and-forget and safe for concurrent use.
type Pipeline struct {
	sink Sink
	cfg  Config

	debugAll bool
	debug    map[string]bool

	streams map[string]*stream

	batchMu sync.Mutex
	batch   []*model.Log

	observersMu sync.RWMutex
	observers   []func(*model.Log)

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New creates a Pipeline writing batches to sink. Call Start to begin
// draining and Stop to flush and shut down.
func New(sink Sink, cfg Config) *Pipeline {
	if cfg.BufferTime <= 0 {
		cfg.BufferTime = 5 * time.Second
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	p := &Pipeline{
		sink:    sink,
		cfg:     cfg,
		debug:   make(map[string]bool),
		streams: make(map[string]*stream),
		done:    make(chan struct{}),
	}

	for _, c := range cfg.Debug {
		if c == "*" {
			p.debugAll = true
		}
		p.debug[c] = true
	}

	// One stream per persistable category, plus the observer-only
	// admin category.
	for _, category := range append(model.LogTypes, model.LogTypeAdmin) {
		p.streams[category] = newStream(category)
	}

	return p
}

// Start launches the category drain goroutines and the flush timer.
func (p *Pipeline) Start() {
	for _, s := range p.streams {
		p.wg.Add(1)
		go p.drain(s)
	}
	p.wg.Add(1)
	go p.flushLoop()
}

// Stop drains the streams, flushes the pending batch, and shuts the
// pipeline down. Events produced after Stop are dropped.
func (p *Pipeline) Stop() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.flush()
	})
}

// System records information not tied to a single user.
func (p *Pipeline) System(message string, fields ...Fields) {
	p.push(model.LogTypeSystem, message, fields)
}

// Log records an operational trace kept server-side only.
func (p *Pipeline) Log(message string, fields ...Fields) {
	p.push(model.LogTypeLog, message, fields)
}

// Info records a user-facing entry; write the message in plain language.
func (p *Pipeline) Info(message string, fields ...Fields) {
	p.push(model.LogTypeInfo, message, fields)
}

// Admin records an administrator event. Admin events are fanned out to
// observers and never persisted.
func (p *Pipeline) Admin(message string, fields ...Fields) {
	p.push(model.LogTypeAdmin, message, fields)
}

// Error records a server-side error for troubleshooting.
func (p *Pipeline) Error(message string, fields ...Fields) {
	p.push(model.LogTypeError, message, fields)
}

// Observe registers a callback for normalized admin events.
func (p *Pipeline) Observe(fn func(*model.Log)) {
	p.observersMu.Lock()
	p.observers = append(p.observers, fn)
	p.observersMu.Unlock()
}

// Go runs fn in a supervised background goroutine. A panic or a
// returned error that is not a user-facing rejection is routed into the
// error category with the raw failure attached, so no asynchronous
// failure is silently lost. Rejections already surfaced to a caller are
// not double-reported.
func (p *Pipeline) Go(name string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.Error("Error panic in "+name+":", Fields{Args: map[string]any{"panic": fmt.Sprint(r)}})
			}
		}()
		if err := fn(); err != nil && !isUserFacing(err) {
			p.Error("Error unhandled failure in "+name+":", Fields{Args: map[string]any{"error": err}})
		}
	}()
}

func isUserFacing(err error) bool {
	return trace.IsBadParameter(err) || trace.IsAccessDenied(err) || trace.IsNotFound(err)
}

func (p *Pipeline) push(category, message string, fields []Fields) {
	var f Fields
	if len(fields) > 0 {
		f = fields[0]
	}
	p.streams[category].push(event{message: message, fields: f})
}

// drain consumes one category stream: normalize, print, then hand the
// event to the batch buffer or the admin observers.
func (p *Pipeline) drain(s *stream) {
	defer p.wg.Done()
	for {
		select {
		case <-s.wake:
			p.consume(s)
		case <-p.done:
			p.consume(s)
			return
		}
	}
}

func (p *Pipeline) consume(s *stream) {
	for _, e := range s.take() {
		l := p.normalize(s.category, e.message, e.fields)
		if l == nil {
			continue
		}
		p.show(l)

		if s.category == model.LogTypeAdmin {
			p.notifyObservers(l)
			continue
		}

		p.batchMu.Lock()
		p.batch = append(p.batch, l)
		p.batchMu.Unlock()
	}
}

func (p *Pipeline) notifyObservers(l *model.Log) {
	p.observersMu.RLock()
	observers := p.observers
	p.observersMu.RUnlock()
	for _, fn := range observers {
		fn(l)
	}
}

func (p *Pipeline) flushLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.BufferTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.flush()
		case <-p.done:
			return
		}
	}
}

// flush swaps the batch buffer and performs one bulk insert. A failed
// flush is printed to the console, swallowed, and never reaches
// producers or later flushes.
func (p *Pipeline) flush() {
	p.batchMu.Lock()
	batch := p.batch
	p.batch = nil
	p.batchMu.Unlock()

	if len(batch) == 0 {
		return
	}

	fmt.Fprintln(p.cfg.Output, grayText(nowText()), grayText(fmt.Sprintf("flushing log batch (%d)", len(batch))))

	if err := p.sink.InsertLogBatch(context.Background(), batch); err != nil {
		fmt.Fprintln(p.cfg.Output, redText(nowText()), redText("Error LogPipeline flush: "+err.Error()))
	}
}
