package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// handleWebsocket streams StatsResponse frames every statsInterval until
// the client disconnects.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log.Debug().Str("remote", r.RemoteAddr).Msg("🔌 WebSocket client connected")

	// Reader goroutine only services control frames and notices the close.
	done := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	statsTicker := time.NewTicker(s.statsInterval)
	defer statsTicker.Stop()
	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()

	if !s.pushStats(conn, r) {
		return
	}
	for {
		select {
		case <-done:
			log.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client disconnected")
			return
		case <-r.Context().Done():
			return
		case <-statsTicker.C:
			if !s.pushStats(conn, r) {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushStats(conn *websocket.Conn, r *http.Request) bool {
	stats, err := s.collectStats(r)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to collect stats for websocket")
		return true
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(stats); err != nil {
		log.Debug().Err(err).Msg("WebSocket write failed")
		return false
	}
	return true
}
