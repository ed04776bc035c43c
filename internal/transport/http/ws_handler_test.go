package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-session-client/internal/app"
	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/infra/memory"
	"github.com/gorilla/websocket"
)

type fakeBackend struct{}

func (fakeBackend) FetchQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (fakeBackend) CreateAttempt(ctx context.Context, quizID int64, p domain.Participant) (domain.Attempt, error) {
	return domain.Attempt{ID: 42, QuizID: quizID, StartedAt: time.Now()}, nil
}

func (fakeBackend) SubmitAnswers(ctx context.Context, attemptID int64, answers []domain.Answer) (domain.Attempt, error) {
	return domain.Attempt{ID: attemptID, QuizID: 7, Score: 1, TotalQuestions: 1}, nil
}

func (fakeBackend) FetchResult(ctx context.Context, attemptID int64) (domain.Result, error) {
	return domain.Result{
		AttemptID: attemptID, Score: 1, TotalQuestions: 1,
		Percentage: 100, IsPassed: true,
		CorrectAnswers:   []domain.AnswerDetail{},
		IncorrectAnswers: []domain.AnswerDetail{},
	}, nil
}

func (fakeBackend) UpdateElapsedTime(ctx context.Context, attemptID int64, seconds int) error {
	return nil
}

func TestWebSocketSessionFlow(t *testing.T) {
	store := memory.NewAttemptStore()
	quizzes := memory.NewStaticQuizSource(sampleQuizzes())
	service := app.NewAttemptService(store, fakeBackend{}, quizzes)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=7&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "started")
	if msgType != "started" {
		t.Fatalf("expected started, got %s", msgType)
	}
	if payload["attemptId"].(float64) != 42 {
		t.Fatalf("expected attemptId 42, got %v", payload["attemptId"])
	}

	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionId":       101,
			"selectedOptionId": 2,
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	msgType, payload = readNext(conn, t, "progress")
	if msgType != "progress" {
		t.Fatalf("expected progress, got %s", msgType)
	}
	if payload["answered"].(float64) != 1 {
		t.Fatalf("expected 1 answered, got %v", payload["answered"])
	}

	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	msgType, payload = readNext(conn, t, "result")
	if msgType != "result" {
		t.Fatalf("expected result, got %s", msgType)
	}
	if passed, _ := payload["is_passed"].(bool); !passed {
		t.Fatalf("expected passing result, got %v", payload)
	}
}

func TestWebSocketRejectsMissingQuizID(t *testing.T) {
	service := app.NewAttemptService(memory.NewAttemptStore(), fakeBackend{}, memory.NewStaticQuizSource(nil))
	wsHandler := NewWSHandler(service)

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

// readNext reads messages until something other than a tick snapshot arrives,
// unless a snapshot is what the caller asked for.
func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "snapshot" && expect != "snapshot" {
			continue
		}
		if expect != "" && msg.Type != expect {
			t.Fatalf("expected type %s, got %s", expect, msg.Type)
		}
		return msg.Type, msg.Payload
	}
}

func sampleQuizzes() map[int64]domain.Quiz {
	return map[int64]domain.Quiz{
		7: {
			ID:    7,
			Title: "Arithmetic",
			Questions: []domain.Question{
				{
					ID:   101,
					Text: "What is 2 + 2?",
					Type: domain.QuestionMultipleChoice,
					Options: []domain.AnswerOption{
						{ID: 1, Text: "3", Order: 1},
						{ID: 2, Text: "4", Order: 2},
						{ID: 3, Text: "5", Order: 3},
					},
					Points: 1,
				},
			},
		},
	}
}
