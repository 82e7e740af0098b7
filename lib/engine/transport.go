// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/bureau-foundation/vte/lib/codec"
)

// Transport is the client end of an engine connection. Send may be
// called concurrently with Receive, but neither may be called
// concurrently with itself.
type Transport interface {
	Send(request Request) error
	Receive() (Response, error)
	Close() error
}

// streamTransport frames envelopes as consecutive CBOR values on a
// byte stream.
type streamTransport struct {
	conn      io.ReadWriteCloser
	encoder   *codec.Encoder
	decoder   *codec.Decoder
	closeOnce sync.Once
	closeErr  error
}

// NewStreamTransport wraps conn as a Transport.
func NewStreamTransport(conn io.ReadWriteCloser) Transport {
	return &streamTransport{
		conn:    conn,
		encoder: codec.NewEncoder(conn),
		decoder: codec.NewDecoder(conn),
	}
}

func (t *streamTransport) Send(request Request) error {
	return t.encoder.Encode(request)
}

func (t *streamTransport) Receive() (Response, error) {
	var response Response
	if err := t.decoder.Decode(&response); err != nil {
		return Response{}, err
	}
	return response, nil
}

func (t *streamTransport) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.conn.Close() })
	return t.closeErr
}

// Dial connects to an engine host listening on a Unix socket.
func Dial(ctx context.Context, socketPath string) (Transport, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to engine at %s: %w", socketPath, err)
	}
	return NewStreamTransport(conn), nil
}
