// Package http exposes a running attempt session over a websocket, so a thin
// UI can render ticks and progress without owning any session logic.
package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"quiz-session-client/internal/app"
	"quiz-session-client/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
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

type answerPayload struct {
	QuestionID       int64  `json:"questionId"`
	SelectedOptionID int64  `json:"selectedOptionId"`
	TextAnswer       string `json:"textAnswer"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type startedPayload struct {
	AttemptID int64       `json:"attemptId"`
	Quiz      domain.Quiz `json:"quiz"`
	Resumed   bool        `json:"resumed"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, starts or resumes an attempt for the quiz in
// the query string and streams session snapshots until the client submits,
// time runs out, or the connection drops.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.URL.Query().Get("quizId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid quizId", http.StatusBadRequest)
		return
	}
	participant := domain.Participant{
		Name:  r.URL.Query().Get("name"),
		Email: r.URL.Query().Get("email"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	timeUp := make(chan struct{})
	sess, err := h.service.Start(r.Context(), quizID, app.StartOptions{
		Participant: participant,
		OnTimeUp:    func() { close(timeUp) },
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer sess.Engine.Close()

	updates, cancel := sess.Engine.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
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
				case send <- outboundMessage[any]{Type: "snapshot", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-timeUp:
				result, err := h.service.Submit(r.Context(), sess)
				msg := outboundMessage[any]{Type: "result", Payload: result}
				if err != nil {
					msg = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				}
				select {
				case send <- msg:
				case <-closeSignals:
				}
				return
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{
		AttemptID: sess.Attempt.ID,
		Quiz:      sess.Quiz,
		Resumed:   sess.Resumed,
	}}
	send <- outboundMessage[any]{Type: "snapshot", Payload: sess.Engine.Snapshot()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			sess.Engine.SetAnswer(payload.QuestionID, domain.Answer{
				QuestionID:       payload.QuestionID,
				SelectedOptionID: payload.SelectedOptionID,
				TextAnswer:       payload.TextAnswer,
			})
			send <- outboundMessage[any]{Type: "progress", Payload: sess.Engine.GetProgress()}
		case "goto":
			var payload gotoPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid goto payload"}}
				continue
			}
			sess.Engine.GoToQuestion(payload.Index)
			send <- outboundMessage[any]{Type: "snapshot", Payload: sess.Engine.Snapshot()}
		case "submit":
			if !sess.Engine.CanSubmit() {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "no answers to submit"}}
				continue
			}
			result, err := h.service.Submit(r.Context(), sess)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
