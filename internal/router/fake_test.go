package router

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/ssh"
)

type fakeContext struct {
	context.Context
	mu     sync.Mutex
	values map[any]any
	user   string
	remote net.Addr
}

func (f *fakeContext) Lock()                         { f.mu.Lock() }
func (f *fakeContext) Unlock()                       { f.mu.Unlock() }
func (f *fakeContext) User() string                  { return f.user }
func (f *fakeContext) SessionID() string             { return "test-session" }
func (f *fakeContext) ClientVersion() string         { return "ssh-test-client" }
func (f *fakeContext) ServerVersion() string         { return "ssh-test-server" }
func (f *fakeContext) RemoteAddr() net.Addr          { return f.remote }
func (f *fakeContext) LocalAddr() net.Addr           { return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 2222} }
func (f *fakeContext) Permissions() *ssh.Permissions { return &ssh.Permissions{} }
func (f *fakeContext) SetValue(key, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}
func (f *fakeContext) Value(key interface{}) interface{} {
	f.mu.Lock()
	v, ok := f.values[key]
	f.mu.Unlock()
	if ok {
		return v
	}
	return f.Context.Value(key)
}

// fakeSession implements the parts of ssh.Session the middleware touches.
// Calling anything else panics on the nil embedded interface.
type fakeSession struct {
	ssh.Session

	user   string
	remote net.Addr
	ctx    *fakeContext
	hasPTY bool

	mu       sync.Mutex
	out      bytes.Buffer
	errOut   bytes.Buffer
	exitCode *int
}

func newFakeSession(user, remote string, hasPTY bool) *fakeSession {
	return newFakeSessionContext(context.Background(), user, remote, hasPTY)
}

func newFakeSessionContext(ctx context.Context, user, remote string, hasPTY bool) *fakeSession {
	var addr net.Addr
	if remote != "" {
		addr = testAddr(remote)
	}
	return &fakeSession{
		user:   user,
		remote: addr,
		hasPTY: hasPTY,
		ctx:    &fakeContext{Context: ctx, values: map[any]any{}, user: user, remote: addr},
	}
}

func (f *fakeSession) User() string         { return f.user }
func (f *fakeSession) RemoteAddr() net.Addr { return f.remote }
func (f *fakeSession) Context() ssh.Context { return f.ctx }
func (f *fakeSession) Stderr() io.ReadWriter {
	return &lockedWriter{mu: &f.mu, buf: &f.errOut}
}
func (f *fakeSession) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}
func (f *fakeSession) Close() error { return nil }
func (f *fakeSession) Exit(code int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exitCode = &code
	return nil
}
func (f *fakeSession) Pty() (ssh.Pty, <-chan ssh.Window, bool) {
	if !f.hasPTY {
		return ssh.Pty{}, nil, false
	}
	return ssh.Pty{Term: "xterm-256color", Window: ssh.Window{Width: 80, Height: 24}}, make(chan ssh.Window), true
}

func (f *fakeSession) output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}

func (f *fakeSession) stderr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errOut.String()
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w *lockedWriter) Read(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Read(p)
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// compose wraps handler so the descriptors run in slice order before it.
func compose(chain []Descriptor, handler ssh.Handler) ssh.Handler {
	h := handler
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i].Middleware(h)
	}
	return h
}
