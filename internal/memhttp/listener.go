// Copyright 2024 The Envelope Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package memhttp

import (
	"context"
	"errors"
	"net"
	"sync"
)

var errClosed = errors.New("memhttp: listener closed")

// pipeListener hands out the server ends of net.Pipe connections created
// by dial.
type pipeListener struct {
	conns     chan net.Conn
	closed    chan struct{}
	closeOnce sync.Once
}

func newPipeListener() *pipeListener {
	return &pipeListener{
		conns:  make(chan net.Conn),
		closed: make(chan struct{}),
	}
}

func (l *pipeListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.closed:
		return nil, &net.OpError{Op: "accept", Net: pipeAddr{}.Network(), Addr: pipeAddr{}, Err: errClosed}
	}
}

func (l *pipeListener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *pipeListener) Addr() net.Addr { return pipeAddr{} }

// dial has the signature of http.Transport.DialContext. The network and
// address are ignored: every dial reaches this listener.
func (l *pipeListener) dial(ctx context.Context, _, _ string) (net.Conn, error) {
	server, client := net.Pipe()
	select {
	case l.conns <- server:
		return client, nil
	case <-ctx.Done():
		return nil, &net.OpError{Op: "dial", Net: pipeAddr{}.Network(), Err: ctx.Err()}
	case <-l.closed:
		return nil, &net.OpError{Op: "dial", Net: pipeAddr{}.Network(), Err: errClosed}
	}
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }

// String matches httptest.DefaultRemoteAddr.
func (pipeAddr) String() string { return "1.2.3.4" }
