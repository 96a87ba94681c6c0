package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"falcon-dash/internal/launches"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteWait = 10 * time.Second

// Message types sent to websocket clients.
const (
	msgSummary = "summary"
	msgError   = "error"
)

// wsMessage is the envelope for every websocket reply.
type wsMessage struct {
	Type    string            `json:"type"`
	Summary *launches.Summary `json:"summary,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// handleWebSocket streams dashboard summaries. The client sends a Filter
// as JSON whenever a slicer changes and receives the matching summary.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	// Server read/write timeouts stay on the hijacked connection.
	conn.SetReadDeadline(time.Time{})

	s.addClient(conn)
	defer s.removeClient(conn)

	if err := s.sendSummary(conn, launches.DefaultFilter()); err != nil {
		log.Debug().Err(err).Msg("Failed to send initial summary")
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("Websocket read failed")
			}
			return
		}

		var f launches.Filter
		if err := json.Unmarshal(data, &f); err != nil {
			if err := s.send(conn, wsMessage{Type: msgError, Error: "invalid filter: " + err.Error()}); err != nil {
				return
			}
			continue
		}
		if err := s.sendSummary(conn, f); err != nil {
			return
		}
	}
}

func (s *Server) sendSummary(conn *websocket.Conn, f launches.Filter) error {
	summary, err := s.summarize(f)
	if err != nil {
		return s.send(conn, wsMessage{Type: msgError, Error: err.Error()})
	}
	return s.send(conn, wsMessage{Type: msgSummary, Summary: &summary})
}

func (s *Server) send(conn *websocket.Conn, msg wsMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

func (s *Server) addClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.WSClientsAdd(1)
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.clientsMu.Unlock()

	conn.Close()
	if ok && s.cfg.Metrics != nil {
		s.cfg.Metrics.WSClientsAdd(-1)
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}
