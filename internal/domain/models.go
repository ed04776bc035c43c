package domain

import (
	"sort"
	"time"
)

// QuestionType enumerates the answer formats a question can take.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionText           QuestionType = "text"
)

// AnswerOption is one selectable option of a choice question.
type AnswerOption struct {
	ID    int64  `json:"id"`
	Text  string `json:"option_text"`
	Order int    `json:"option_order"`
}

// Question models a single quiz question with its ordered options.
type Question struct {
	ID      int64          `json:"id"`
	Text    string         `json:"question_text"`
	Type    QuestionType   `json:"question_type"`
	Points  int            `json:"points"`
	Options []AnswerOption `json:"options"`
}

// SortOptions orders the options by option_order. The source collection does
// not guarantee order, so this must run before options are displayed or matched.
func (q *Question) SortOptions() {
	sort.SliceStable(q.Options, func(i, j int) bool {
		return q.Options[i].Order < q.Options[j].Order
	})
}

// Quiz is the immutable definition of a quiz for the duration of a session.
// TimeLimit is in seconds; zero means untimed.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	TimeLimit   int        `json:"time_limit"`
	Questions   []Question `json:"questions"`
}

// Answer holds the user's response to one question: either a selected option
// (choice types) or free text (text type). Exactly one answer per question id;
// a later write overwrites the prior value.
type Answer struct {
	QuestionID       int64  `json:"question_id"`
	SelectedOptionID int64  `json:"selected_option_id,omitempty"`
	TextAnswer       string `json:"text_answer,omitempty"`
}

// Participant carries the optional identity attached to an attempt at creation.
type Participant struct {
	Name  string `json:"participant_name,omitempty"`
	Email string `json:"participant_email,omitempty"`
}

// Attempt is the persisted record of one run through a quiz. The local store
// keeps the authoritative client-side copy, upserted by ID on every save.
// StartedAt is the single source of truth for elapsed-time computation.
type Attempt struct {
	ID               int64      `json:"id"`
	QuizID           int64      `json:"quiz_id"`
	ParticipantName  string     `json:"participant_name,omitempty"`
	ParticipantEmail string     `json:"participant_email,omitempty"`
	Score            int        `json:"score"`
	TotalQuestions   int        `json:"total_questions"`
	TimeTaken        int        `json:"time_taken"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	IsCompleted      bool       `json:"is_completed"`
}

// AnswerDetail is one entry of a result's per-question breakdown.
type AnswerDetail struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

// Result is the scored outcome of a completed attempt, upserted by attempt id.
// TimeTaken always equals the elapsed time frozen at submission; a stale
// server echo never overrides it.
type Result struct {
	AttemptID        int64          `json:"attempt_id"`
	Score            int            `json:"score"`
	TotalQuestions   int            `json:"total_questions"`
	Percentage       float64        `json:"percentage"`
	TimeTaken        int            `json:"time_taken"`
	IsPassed         bool           `json:"is_passed"`
	CorrectAnswers   []AnswerDetail `json:"correct_answers"`
	IncorrectAnswers []AnswerDetail `json:"incorrect_answers"`
}

// PassThreshold is the fraction of total questions required to pass.
const PassThreshold = 0.6

// UserStats aggregates a user's attempt history. Derived on demand, never stored.
type UserStats struct {
	TotalAttempts      int `json:"totalAttempts"`
	CompletedAttempts  int `json:"completedAttempts"`
	AverageScore       int `json:"averageScore"`
	PassRate           int `json:"passRate"`
	TotalTimeSpent     int `json:"totalTimeSpent"`
	AverageTimePerQuiz int `json:"averageTimePerQuiz"`
	RecentActivity     int `json:"recentActivity"`
}
