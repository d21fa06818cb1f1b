package router

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"go.uber.org/zap"
)

const maxSessionsMessage = "max sessions exceeded\n"

// MaxSessions caps concurrent sessions. A slot is released when the handler
// returns, panics, or the session context ends, whichever comes first.
func MaxSessions(limit int, logger *zap.Logger) wish.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 1
	}
	slots := make(chan struct{}, limit)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			select {
			case slots <- struct{}{}:
			default:
				logger.Warn("session rejected",
					zap.String("event", "max_sessions_exceeded"),
					zap.String("remote_ip", remoteIP(s)),
					zap.Int("limit", limit),
				)
				_, _ = s.Write([]byte(maxSessionsMessage))
				return
			}

			var once sync.Once
			release := func() { once.Do(func() { <-slots }) }
			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-s.Context().Done():
					release()
				case <-done:
				}
			}()

			defer func() {
				release()
				if r := recover(); r != nil {
					logger.Error("session handler panicked",
						zap.String("event", "session_panic"),
						zap.String("remote_ip", remoteIP(s)),
						zap.String("panic", fmt.Sprint(r)),
					)
				}
			}()
			next(s)
		}
	}
}
