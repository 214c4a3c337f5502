// internal/control/events.go
package control

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// statusInterval is the push cadence of the websocket status stream.
	statusInterval = 1 * time.Second
	writeTimeout   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The server binds to loopback; the stream carries no credentials.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents upgrades to a websocket and pushes status snapshots at a fixed
// interval until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	s.logger.Debug("Event stream connected", zap.String("remote", r.RemoteAddr))

	// Drain reads so close frames and pings are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			payload, err := json.Marshal(s.handler.Status())
			if err != nil {
				s.logger.Warn("Encoding status event failed", zap.Error(err))
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("Event stream closed", zap.Error(err))
				return
			}
		}
	}
}
