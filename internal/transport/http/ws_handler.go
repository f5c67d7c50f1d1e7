package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuizService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Nickname string `json:"nickname"`
}

type restartPayload struct {
	ResetScores *bool `json:"resetScores"`
}

type answerPayload struct {
	QuestionID  string `json:"questionId"`
	OptionIndex int    `json:"optionIndex"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the room.
// Each connection gets a server-assigned id; the transport guarantees exactly
// one Disconnect per teardown.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	events, cancel := h.service.Subscribe(connID)
	defer cancel()
	defer h.service.Disconnect(connID)

	send := make(chan domain.Event, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for evt := range send {
			if err := conn.WriteJSON(evt); err != nil {
				h.log.Debug().Err(err).Str("conn", connID).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- evt:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, connID, inbound, send)
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, connID string, inbound inboundMessage, send chan<- domain.Event) {
	switch inbound.Type {
	case "join":
		var payload joinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError(send, "invalid join payload")
			return
		}
		if err := h.service.Join(connID, payload.Nickname); err != nil {
			sendError(send, err.Error())
		}
	case "startSession":
		if err := h.service.StartSession(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("start session failed")
			sendError(send, "could not start the session")
		}
	case "restartSession":
		var payload restartPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				sendError(send, "invalid restart payload")
				return
			}
		}
		resetScores := payload.ResetScores == nil || *payload.ResetScores
		if err := h.service.RestartSession(r.Context(), resetScores); err != nil {
			h.log.Warn().Err(err).Msg("restart session failed")
			sendError(send, "could not restart the session")
		}
	case "submitAnswer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			sendError(send, "invalid answer payload")
			return
		}
		h.service.SubmitAnswer(connID, payload.QuestionID, payload.OptionIndex)
	case "advanceByHost":
		h.service.AdvanceByHost()
	case "leave":
		h.service.Leave(connID)
	case "requestLeaderboard":
		send <- domain.Event{Type: domain.EventLeaderboard, Payload: h.service.Leaderboard()}
	default:
		sendError(send, "unsupported message type")
	}
}

func sendError(send chan<- domain.Event, message string) {
	send <- domain.Event{Type: domain.EventErrorNotice, Payload: domain.ErrorNotice{Message: message}}
}
