package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quiz-session-client/internal/domain"
)

// HTTPClient talks to the quiz backend's REST surface.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the given base URL, e.g.
// "http://localhost:8000/api/v1". Timeout covers the whole request.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FetchQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/quiz/%d", quizID), nil, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	// Option order is not guaranteed by the source collection.
	for i := range quiz.Questions {
		quiz.Questions[i].SortOptions()
	}
	return quiz, nil
}

func (c *HTTPClient) CreateAttempt(ctx context.Context, quizID int64, participant domain.Participant) (domain.Attempt, error) {
	body := struct {
		QuizID           int64  `json:"quiz_id"`
		ParticipantName  string `json:"participant_name,omitempty"`
		ParticipantEmail string `json:"participant_email,omitempty"`
	}{quizID, participant.Name, participant.Email}

	var attempt domain.Attempt
	if err := c.do(ctx, http.MethodPost, "/attempt/", body, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

func (c *HTTPClient) SubmitAnswers(ctx context.Context, attemptID int64, answers []domain.Answer) (domain.Attempt, error) {
	body := struct {
		Answers []domain.Answer `json:"answers"`
	}{answers}

	var attempt domain.Attempt
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/attempt/%d/submit", attemptID), body, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

func (c *HTTPClient) FetchResult(ctx context.Context, attemptID int64) (domain.Result, error) {
	var result domain.Result
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/attempt/%d/results", attemptID), nil, &result); err != nil {
		return domain.Result{}, err
	}
	return result, nil
}

func (c *HTTPClient) UpdateElapsedTime(ctx context.Context, attemptID int64, seconds int) error {
	body := struct {
		TimeTaken int `json:"time_taken"`
	}{seconds}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/attempt/%d/time", attemptID), body, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindInvalid, Message: err.Error()}
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return &Error{Kind: KindInvalid, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return normalizeStatus(resp.StatusCode, resp.Body)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Kind: KindInternal, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

// normalizeStatus flattens the backend's error body into the tagged shape.
// Backends disagree on the message field name, so both are probed.
func normalizeStatus(status int, body io.Reader) *Error {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(body).Decode(&payload)

	message := payload.Detail
	if message == "" {
		message = payload.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	kind := KindInternal
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status >= 400 && status < 500:
		kind = KindInvalid
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway || status == http.StatusGatewayTimeout:
		kind = KindUnavailable
	}
	return &Error{Kind: kind, Message: message}
}
