package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"mosaic-picture/internal/catalog"
	"mosaic-picture/internal/config"
	"mosaic-picture/internal/router"
	"mosaic-picture/internal/tui"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testCatalog = `
pictures:
  - name: harbor
    alt: Harbor at dusk
    children:
      - source: {media: "(min-width: 100px)", art: "WIDE HARBOR"}
      - source: {media: "(prefers-color-scheme: dark)", art: "NIGHT HARBOR"}
      - source: {art: "SMALL HARBOR"}
`

type fakeContext struct {
	context.Context
	mu     sync.Mutex
	values map[any]any
	remote net.Addr
}

func (f *fakeContext) Lock()                         { f.mu.Lock() }
func (f *fakeContext) Unlock()                       { f.mu.Unlock() }
func (f *fakeContext) User() string                  { return "harbor" }
func (f *fakeContext) SessionID() string             { return "session-server" }
func (f *fakeContext) ClientVersion() string         { return "ssh-test-client" }
func (f *fakeContext) ServerVersion() string         { return "ssh-test-server" }
func (f *fakeContext) RemoteAddr() net.Addr          { return f.remote }
func (f *fakeContext) LocalAddr() net.Addr           { return f.remote }
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

type fakeSession struct {
	ssh.Session

	user   string
	ctx    *fakeContext
	window ssh.Window

	mu       sync.Mutex
	out      bytes.Buffer
	errOut   bytes.Buffer
	exitCode *int
}

func newFakeSession(ctx context.Context, user string) *fakeSession {
	remote := &net.TCPAddr{IP: net.ParseIP("203.0.113.60"), Port: 2022}
	return &fakeSession{
		user:   user,
		ctx:    &fakeContext{Context: ctx, values: map[any]any{}, remote: remote},
		window: ssh.Window{Width: 80, Height: 24},
	}
}

func (f *fakeSession) User() string         { return f.user }
func (f *fakeSession) RemoteAddr() net.Addr { return f.ctx.remote }
func (f *fakeSession) Context() ssh.Context { return f.ctx }
func (f *fakeSession) Environ() []string    { return nil }
func (f *fakeSession) Close() error         { return nil }
func (f *fakeSession) Stderr() io.ReadWriter {
	return &f.errOut
}
func (f *fakeSession) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.Write(p)
}
func (f *fakeSession) Exit(code int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exitCode = &code
	return nil
}
func (f *fakeSession) Pty() (ssh.Pty, <-chan ssh.Window, bool) {
	return ssh.Pty{Term: "xterm-kitty", Window: f.window}, nil, true
}

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalog), "")
	require.NoError(t, err)
	return catalog.NewStore(filepath.Join(t.TempDir(), "catalog.yaml"), c)
}

func newTestConfig(t *testing.T, port int) config.Config {
	t.Helper()
	return config.Config{
		Host:               "127.0.0.1",
		Port:               port,
		HostKeyPath:        filepath.Join(t.TempDir(), "host_ed25519"),
		IdleTimeout:        time.Minute,
		MaxSessions:        4,
		RateLimitPerMinute: 30,
		RateLimitBurst:     10,
		DevicePixelRatio:   2,
		ColorScheme:        config.ColorSchemeAuto,
	}
}

func asciiRenderer(dark bool) func(ssh.Session) *lipgloss.Renderer {
	return func(ssh.Session) *lipgloss.Renderer {
		r := lipgloss.NewRenderer(io.Discard)
		r.SetColorProfile(termenv.Ascii)
		r.SetHasDarkBackground(dark)
		return r
	}
}

func TestNewRuntimeStartupPipeline(t *testing.T) {
	runtime, err := New(newTestConfig(t, 2222), newTestStore(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:2222", runtime.Address())
	assert.Equal(t,
		[]string{"rate-limit", "max-sessions", "active-term", "picture-routing", "session-metadata"},
		runtime.MiddlewareIDs(),
	)
}

func TestTeaHandlerMountsRoutedPicture(t *testing.T) {
	cfg := newTestConfig(t, 2222)
	cfg.ColorScheme = config.ColorSchemeDark
	runtime, err := New(cfg, newTestStore(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	runtime.newRenderer = asciiRenderer(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newFakeSession(ctx, "harbor")

	var model tui.Model
	routed := router.PictureRouting(runtime.store.Lookup, nil)(func(sess ssh.Session) {
		m, opts := runtime.teaHandler(sess)
		require.NotNil(t, m)
		assert.NotEmpty(t, opts)
		model = m.(tui.Model)
	})
	routed(s)

	selected, ok := model.Selected()
	require.True(t, ok)
	assert.Equal(t, "NIGHT HARBOR", selected.SrcSet.Text)
	assert.Contains(t, model.View(), "SCREEN 80x24 | DARK")
}

func TestTeaHandlerDetectsBackground(t *testing.T) {
	for _, tc := range []struct {
		dark bool
		want string
	}{
		{dark: true, want: "NIGHT HARBOR"},
		{dark: false, want: "SMALL HARBOR"},
	} {
		t.Run(fmt.Sprintf("dark=%v", tc.dark), func(t *testing.T) {
			runtime, err := New(newTestConfig(t, 2222), newTestStore(t), zaptest.NewLogger(t))
			require.NoError(t, err)
			runtime.newRenderer = asciiRenderer(tc.dark)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			s := newFakeSession(ctx, "harbor")

			router.PictureRouting(runtime.store.Lookup, nil)(func(sess ssh.Session) {
				m, _ := runtime.teaHandler(sess)
				selected, _ := m.(tui.Model).Selected()
				assert.Equal(t, tc.want, selected.SrcSet.Text)
			})(s)
		})
	}
}

func TestTeaHandlerWithoutRoutedPicture(t *testing.T) {
	runtime, err := New(newTestConfig(t, 2222), newTestStore(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	runtime.newRenderer = asciiRenderer(false)

	s := newFakeSession(context.Background(), "harbor")
	m, opts := runtime.teaHandler(s)

	assert.Nil(t, m)
	assert.Nil(t, opts)
	require.NotNil(t, s.exitCode)
	assert.Equal(t, 1, *s.exitCode)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	runtime, err := New(newTestConfig(t, port), newTestStore(t), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runtime.Run(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", runtime.Address())
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
