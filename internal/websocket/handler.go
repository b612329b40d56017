package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"classpoll/internal/chat"
	"classpoll/internal/session"
	"classpoll/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Clients are served from arbitrary origins (reverse proxies,
		// local dev); tighten for locked-down deployments.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests to websocket connections, decodes
// inbound events at the boundary and dispatches them to the coordinator
// and the chat relay. Guard failures go back to the offending connection
// as tagged error events; nothing here crashes the session.
type Handler struct {
	registry     *Registry
	coordinator  *session.Coordinator
	chat         *chat.Relay
	pingInterval time.Duration
	readTimeout  time.Duration
}

func NewHandler(registry *Registry, coordinator *session.Coordinator, relay *chat.Relay, pingInterval, readTimeout time.Duration) *Handler {
	return &Handler{
		registry:     registry,
		coordinator:  coordinator,
		chat:         relay,
		pingInterval: pingInterval,
		readTimeout:  readTimeout,
	}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket: upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn)
	if err := h.registry.Register(wsConn); err != nil {
		log.Printf("websocket: register failed: %v", err)
		_ = wsConn.Close()
		return
	}

	go h.handleConnection(wsConn)
}

// handleConnection is the per-connection read loop with ping/pong
// keepalive. Connection loss surfaces to the coordinator as a Disconnect
// command, exactly like any client-issued command.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		h.registry.Unregister(conn)
		h.coordinator.Disconnect(conn.ID())
		h.chat.Forget(conn.ID())
		_ = conn.Close()
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: read error on %s: %v", conn.ID(), err)
			}
			return
		}
		if messageType == websocket.TextMessage {
			h.dispatch(conn, data)
		}
	}
}

// dispatch validates one inbound event and routes it. The envelope and
// every payload are fully decoded here, so the coordinator only ever
// sees normalized commands.
func (h *Handler) dispatch(conn *Connection, data []byte) {
	var env types.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.sendError(conn, types.NewCommandError(types.KindBadRequest, "Invalid message framing"))
		return
	}

	var err error
	switch env.Type {
	case types.EventTeacherJoin:
		conn.SetRole(RoleTeacher)
		h.coordinator.TeacherJoin(conn.ID())

	case types.EventStudentJoin:
		var req types.StudentJoinRequest
		if err = decode(env.Data, &req); err != nil {
			break
		}
		req.Normalize()
		if err = req.Validate(); err != nil {
			break
		}
		wasStudent := conn.Role() == RoleStudent
		conn.SetRole(RoleStudent)
		if err = h.coordinator.StudentJoin(conn.ID(), req.Name); err != nil && !wasStudent {
			// Failed first join: the connection never made the roster, so
			// it does not belong in the student audience. A failed rename
			// leaves an already-joined student untouched.
			conn.SetRole("")
		}

	case types.EventCreatePoll:
		var req types.CreatePollRequest
		if err = decode(env.Data, &req); err != nil {
			break
		}
		req.Normalize()
		if err = req.Validate(); err != nil {
			break
		}
		err = h.coordinator.CreatePoll(req.Question, req.Options, req.TimeLimit)

	case types.EventSubmitAnswer:
		var req types.SubmitAnswerRequest
		if err = decode(env.Data, &req); err != nil {
			break
		}
		if err = req.Validate(); err != nil {
			break
		}
		err = h.coordinator.SubmitAnswer(conn.ID(), req.PollID, req.Answer)

	case types.EventRemoveStudent:
		var req types.RemoveStudentRequest
		if err = decode(env.Data, &req); err != nil {
			break
		}
		if err = req.Validate(); err != nil {
			break
		}
		err = h.coordinator.RemoveStudent(req.StudentID)

	case types.EventSendMessage:
		var req types.SendMessageRequest
		if err = decode(env.Data, &req); err != nil {
			break
		}
		if err = req.Validate(); err != nil {
			break
		}
		_, err = h.chat.Send(conn.ID(), req.Message, req.SenderType, req.SenderName)

	case types.EventGetPastResults:
		h.coordinator.PastResults(conn.ID())

	default:
		err = types.NewCommandError(types.KindBadRequest, "Unknown event type")
	}

	if err != nil {
		h.sendError(conn, err)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return types.NewCommandError(types.KindBadRequest, "Missing payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return types.NewCommandError(types.KindBadRequest, "Invalid payload")
	}
	return nil
}

func (h *Handler) sendError(conn *Connection, err error) {
	var cmdErr *types.CommandError
	if !errors.As(err, &cmdErr) {
		log.Printf("websocket: internal error on %s: %v", conn.ID(), err)
		cmdErr = types.NewCommandError(types.KindBadRequest, "Request failed")
	}
	if sendErr := conn.Send(types.EventError, cmdErr); sendErr != nil {
		log.Printf("websocket: error delivery to %s failed: %v", conn.ID(), sendErr)
	}
}
