// Package router holds the SSH middleware that runs before a picture session:
// throttling, session caps, username routing and session metadata.
package router

import (
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mosaic-picture/internal/catalog"
)

const notFoundMessage = "PICTURE NOT FOUND. CHECK THE CATALOG.\n"

type contextKey string

const (
	pictureKey contextKey = "picture"
	sessionKey contextKey = "session"
)

// Lookup resolves a picture by name.
type Lookup func(name string) (catalog.Picture, error)

// SessionInfo describes an admitted session.
type SessionInfo struct {
	ID       string
	Username string
	Picture  string
	RemoteIP string
	Started  time.Time
}

// Descriptor names a middleware so the chain can be logged and tested.
type Descriptor struct {
	Name       string
	Middleware wish.Middleware
}

// ChainConfig configures DefaultChain.
type ChainConfig struct {
	RateLimitPerMinute int
	RateLimitBurst     int
	MaxSessions        int
	Lookup             Lookup
	Logger             *zap.Logger
}

// DefaultChain returns the middleware in execution order: throttling,
// session cap, PTY requirement, picture routing, then session metadata.
func DefaultChain(cfg ChainConfig) []Descriptor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return []Descriptor{
		{Name: "rate-limit", Middleware: RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger, nil)},
		{Name: "max-sessions", Middleware: MaxSessions(cfg.MaxSessions, logger)},
		{Name: "active-term", Middleware: activeterm.Middleware()},
		{Name: "picture-routing", Middleware: PictureRouting(cfg.Lookup, logger)},
		{Name: "session-metadata", Middleware: SessionMetadata(logger)},
	}
}

// WishMiddleware returns the chain in the order wish.WithMiddleware expects,
// where the last entry runs first. final runs after every descriptor.
func WishMiddleware(chain []Descriptor, final wish.Middleware) []wish.Middleware {
	out := make([]wish.Middleware, 0, len(chain)+1)
	if final != nil {
		out = append(out, final)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		out = append(out, chain[i].Middleware)
	}
	return out
}

// Names lists the descriptor names in order.
func Names(chain []Descriptor) []string {
	names := make([]string, 0, len(chain))
	for _, d := range chain {
		names = append(names, d.Name)
	}
	return names
}

// PictureRouting admits a session only when its username names a picture in
// the catalog. The picture is stored on the session context.
func PictureRouting(lookup Lookup, logger *zap.Logger) wish.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			if lookup == nil {
				_, _ = s.Write([]byte(notFoundMessage))
				return
			}
			p, err := lookup(s.User())
			if err != nil {
				logger.Info("picture not found",
					zap.String("event", "picture_not_found"),
					zap.String("username", s.User()),
					zap.String("remote_ip", remoteIP(s)),
				)
				_, _ = s.Write([]byte(notFoundMessage))
				return
			}
			s.Context().SetValue(pictureKey, p)
			next(s)
		}
	}
}

// SessionMetadata assigns the session an id and logs its start and end.
func SessionMetadata(logger *zap.Logger) wish.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			info := SessionInfo{
				ID:       uuid.NewString(),
				Username: s.User(),
				RemoteIP: remoteIP(s),
				Started:  time.Now().UTC(),
			}
			if p, ok := PictureFrom(s.Context()); ok {
				info.Picture = p.Name
			}
			s.Context().SetValue(sessionKey, info)

			log := logger.With(
				zap.String("session_id", info.ID),
				zap.String("picture", info.Picture),
				zap.String("remote_ip", info.RemoteIP),
			)
			log.Info("session started", zap.String("event", "session_started"))
			defer func() {
				log.Info("session ended",
					zap.String("event", "session_ended"),
					zap.Duration("duration", time.Since(info.Started)),
				)
			}()
			next(s)
		}
	}
}

// PictureFrom returns the picture PictureRouting stored on ctx.
func PictureFrom(ctx ssh.Context) (catalog.Picture, bool) {
	p, ok := ctx.Value(pictureKey).(catalog.Picture)
	return p, ok
}

// SessionFrom returns the metadata SessionMetadata stored on ctx.
func SessionFrom(ctx ssh.Context) (SessionInfo, bool) {
	info, ok := ctx.Value(sessionKey).(SessionInfo)
	return info, ok
}
