// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/bureau-foundation/vte/lib/codec"
	"github.com/bureau-foundation/vte/lib/netutil"
)

// Handler executes one operation. payload is the raw CBOR payload
// from the request (nil when absent). A non-nil result is encoded into
// the response's Data; an error becomes a failure response whose
// Error is err.Error().
type Handler func(ctx context.Context, payload []byte) (any, error)

// queueDepth bounds how many decoded requests may wait for the worker
// before connection readers block.
const queueDepth = 64

// job is one request waiting for the worker, with the function that
// writes its response back to the originating connection. ctx ends
// with the connection.
type job struct {
	ctx     context.Context
	request Request
	reply   func(Response)
}

// Host serves engine operations. All requests execute on one worker
// goroutine in arrival order, across every connection. The worker runs
// while at least one connection is being served, so a host can be
// served again after an earlier serving context has ended.
type Host struct {
	handlers map[Op]Handler
	logger   *slog.Logger
	queue    chan job

	mu         sync.Mutex
	serving    int
	stopWorker chan struct{}
	workerDone chan struct{}

	connections sync.WaitGroup
}

// NewHost creates a host with no operations registered. A nil logger
// uses slog.Default().
func NewHost(logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		handlers: make(map[Op]Handler),
		logger:   logger,
		queue:    make(chan job, queueDepth),
	}
}

// Handle registers the handler for op. Panics on duplicate
// registration. Register every operation before serving.
func (h *Host) Handle(op Op, handler Handler) {
	if _, exists := h.handlers[op]; exists {
		panic(fmt.Sprintf("engine.Host: duplicate handler for %s", op))
	}
	h.handlers[op] = handler
}

// Pipe connects an in-process client to the host and returns the
// client's Transport. The host side stops when ctx is cancelled or
// the transport is closed.
func (h *Host) Pipe(ctx context.Context) Transport {
	clientEnd, hostEnd := net.Pipe()
	go func() {
		if err := h.ServeConn(ctx, hostEnd); err != nil {
			h.logger.Debug("engine pipe closed", "error", err)
		}
	}()
	return NewStreamTransport(clientEnd)
}

// Serve listens on a Unix socket at socketPath and serves every
// connection until ctx is cancelled. A stale socket file is removed
// first; the socket file is removed on return.
func (h *Host) Serve(ctx context.Context, socketPath string) error {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)

	h.logger.Info("engine host listening", "path", socketPath)
	return h.ServeListener(ctx, listener)
}

// ServeListener serves connections accepted from listener until ctx
// is cancelled, then closes the listener and waits for connection
// readers to exit.
func (h *Host) ServeListener(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			h.logger.Error("accept failed", "error", err)
			continue
		}
		h.connections.Add(1)
		go func() {
			defer h.connections.Done()
			if err := h.ServeConn(ctx, conn); err != nil {
				h.logger.Debug("engine connection closed", "error", err)
			}
		}()
	}

	h.connections.Wait()
	return nil
}

// ServeConn reads requests from conn and queues them for the worker
// until conn reaches EOF or ctx is cancelled. conn is closed on
// return. Returns nil on clean EOF.
func (h *Host) ServeConn(ctx context.Context, conn io.ReadWriteCloser) error {
	release := h.acquire()
	defer release()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		conn.Close()
	}()

	var writeMu sync.Mutex
	encoder := codec.NewEncoder(conn)
	reply := func(response Response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := encoder.Encode(response); err != nil {
			h.logger.Debug("writing engine response failed", "id", response.ID, "error", err)
		}
	}

	decoder := codec.NewDecoder(conn)
	for {
		var request Request
		if err := decoder.Decode(&request); err != nil {
			if netutil.IsExpectedCloseError(err) || connCtx.Err() != nil {
				return nil
			}
			// The stream cannot be resynchronized after a bad value.
			reply(Response{Error: fmt.Sprintf("invalid request: %v", err)})
			return err
		}

		select {
		case h.queue <- job{ctx: connCtx, request: request, reply: reply}:
		case <-connCtx.Done():
			return nil
		}
	}
}

// acquire registers a served connection, starting the worker for the
// first one. The returned release stops the worker when the last
// connection ends. A new worker waits for the previous one to finish
// its current job, so at most one runs at a time.
func (h *Host) acquire() (release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.serving == 0 {
		if h.workerDone != nil {
			<-h.workerDone
		}
		h.stopWorker = make(chan struct{})
		h.workerDone = make(chan struct{})
		go h.work(h.stopWorker, h.workerDone)
	}
	h.serving++

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.serving--
			if h.serving == 0 {
				close(h.stopWorker)
			}
		})
	}
}

// work executes queued jobs one at a time until stop is closed. Jobs
// whose connection has already ended are dropped.
func (h *Host) work(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case next := <-h.queue:
			if next.ctx.Err() != nil {
				continue
			}
			next.reply(h.execute(next.ctx, next.request))
		}
	}
}

func (h *Host) execute(ctx context.Context, request Request) Response {
	handler, exists := h.handlers[request.Op]
	if !exists {
		return Response{ID: request.ID, Error: fmt.Sprintf("unknown operation %q", request.Op)}
	}

	result, err := handler(ctx, request.Payload)
	if err != nil {
		h.logger.Debug("engine operation failed", "op", request.Op, "id", request.ID, "error", err)
		return Response{ID: request.ID, Error: err.Error()}
	}

	response := Response{ID: request.ID, OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			return Response{ID: request.ID, Error: fmt.Sprintf("internal: encoding result: %v", err)}
		}
		response.Data = data
	}
	return response
}

// DecodePayload decodes an operation payload into T. An absent
// payload is an error.
func DecodePayload[T any](payload []byte) (T, error) {
	var value T
	if len(payload) == 0 {
		return value, errors.New("missing payload")
	}
	if err := codec.Unmarshal(payload, &value); err != nil {
		return value, fmt.Errorf("invalid payload: %w", err)
	}
	return value, nil
}
