package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"retailhub/internal/events"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	streamBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// @Summary Live change events
// @Description Upgrades to a websocket and streams bus events as JSON text frames.
// @Tags events
// @Security BearerAuth
// @Param token query string false "Token when headers cannot be set"
// @Success 101
// @Router /events/ws [get]
func (s *Server) eventStream(c *gin.Context) {
	// subscribe first so nothing published right after the handshake is missed
	stream := s.svc.Bus.Stream(streamBuffer)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		stream.Close()
		s.log.WithError(err).Warn("websocket upgrade")
		return
	}
	log := s.log.WithField("remoteAddr", conn.RemoteAddr().String())
	log.Info("event stream opened")

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, stream.Events(), done)

	stream.Close()
	_ = conn.Close()
	log.WithField("dropped", stream.Dropped()).Info("event stream closed")
}

// readPump discards client frames and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, evs <-chan events.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-evs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
