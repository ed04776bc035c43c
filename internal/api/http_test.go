package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-session-client/internal/domain"
)

func TestFetchQuizSortsOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quiz/7" {
			t.Fatalf("path = %s, want /quiz/7", r.URL.Path)
		}
		json.NewEncoder(w).Encode(domain.Quiz{
			ID: 7,
			Questions: []domain.Question{
				{
					ID: 101,
					Options: []domain.AnswerOption{
						{ID: 3, Text: "c", Order: 3},
						{ID: 1, Text: "a", Order: 1},
						{ID: 2, Text: "b", Order: 2},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	quiz, err := client.FetchQuiz(context.Background(), 7)
	if err != nil {
		t.Fatalf("FetchQuiz: %v", err)
	}
	opts := quiz.Questions[0].Options
	if opts[0].ID != 1 || opts[1].ID != 2 || opts[2].ID != 3 {
		t.Fatalf("options not sorted by order: %+v", opts)
	}
}

func TestUpdateElapsedTimePutsTimeTaken(t *testing.T) {
	var got struct {
		TimeTaken int `json:"time_taken"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/attempt/42/time" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	if err := client.UpdateElapsedTime(context.Background(), 42, 150); err != nil {
		t.Fatalf("UpdateElapsedTime: %v", err)
	}
	if got.TimeTaken != 150 {
		t.Fatalf("time_taken = %d, want 150", got.TimeTaken)
	}
}

func TestErrorNormalization(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{"not found with detail", 404, `{"detail":"attempt not found"}`, KindNotFound, "attempt not found"},
		{"conflict with message", 409, `{"message":"already submitted"}`, KindConflict, "already submitted"},
		{"bad request", 422, `{"detail":"invalid answers"}`, KindInvalid, "invalid answers"},
		{"bad gateway", 502, ``, KindUnavailable, "Bad Gateway"},
		{"server error", 500, `{"message":"boom"}`, KindInternal, "boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, 5*time.Second)
			_, err := client.FetchResult(context.Background(), 42)
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type %T, want *Error", err)
			}
			if apiErr.Kind != tc.wantKind {
				t.Fatalf("kind = %s, want %s", apiErr.Kind, tc.wantKind)
			}
			if apiErr.Message != tc.wantMsg {
				t.Fatalf("message = %q, want %q", apiErr.Message, tc.wantMsg)
			}
		})
	}
}

func TestTransportErrorIsUnavailable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", time.Second)
	_, err := client.FetchQuiz(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindUnavailable {
		t.Fatalf("kind = %s, want unavailable", KindOf(err))
	}
}
