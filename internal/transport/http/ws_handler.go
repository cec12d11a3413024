package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"langquiz-service/internal/app"
	"langquiz-service/internal/logger"
)

const wsWriteWait = 10 * time.Second

// ProgressWSHandler streams a learner's attempt results over a websocket.
type ProgressWSHandler struct {
	hub      *app.ProgressHub
	learners *app.LearnerService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewProgressWSHandler(hub *app.ProgressHub, learners *app.LearnerService, log *logger.Logger, checkOrigin func(r *http.Request) bool) *ProgressWSHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &ProgressWSHandler{
		hub:      hub,
		learners: learners,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades an authenticated learner request and forwards every
// progress update published for that learner until the client disconnects.
// The first message is a snapshot of the learner's current progress.
func (h *ProgressWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	learnerID := caller(r).UserID

	// Subscribe before the snapshot so no update slips between the two.
	updates, cancel := h.hub.Subscribe(learnerID)
	defer cancel()

	snapshot, err := h.learners.Progress(r.Context(), learnerID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "learner_id", learnerID, "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "learner_id", learnerID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "progress", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "snapshot", Payload: newProgressView(snapshot)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "ping":
			reply = outboundMessage[any]{Type: "pong", Payload: struct{}{}}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
