// Package postgres persists the attempt history in Postgres, for deployments
// where many client apps share one durable history.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/timeutil"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore implements the store contract over two tables, one per
// collection, upserted by primary key.
type AttemptStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool, now: time.Now}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, a domain.Attempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (
			id, quiz_id, participant_name, participant_email,
			score, total_questions, time_taken, started_at, completed_at, is_completed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			quiz_id = EXCLUDED.quiz_id,
			participant_name = EXCLUDED.participant_name,
			participant_email = EXCLUDED.participant_email,
			score = EXCLUDED.score,
			total_questions = EXCLUDED.total_questions,
			time_taken = EXCLUDED.time_taken,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			is_completed = EXCLUDED.is_completed`,
		a.ID, a.QuizID, a.ParticipantName, a.ParticipantEmail,
		a.Score, a.TotalQuestions, timeutil.Validate(a.TimeTaken),
		a.StartedAt, a.CompletedAt, a.IsCompleted,
	)
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

const attemptColumns = `id, quiz_id, participant_name, participant_email,
	score, total_questions, time_taken, started_at, completed_at, is_completed`

func (s *AttemptStore) Attempts(ctx context.Context) ([]domain.Attempt, error) {
	return s.queryAttempts(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts ORDER BY started_at`)
}

func (s *AttemptStore) AttemptByID(ctx context.Context, id int64) (domain.Attempt, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE id=$1`, id)
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("attempt by id: %w", err)
	}
	return a, nil
}

func (s *AttemptStore) AttemptsByQuizID(ctx context.Context, quizID int64) ([]domain.Attempt, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE quiz_id=$1 ORDER BY started_at`, quizID)
}

func (s *AttemptStore) IncompleteAttempt(ctx context.Context, quizID int64) (domain.Attempt, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+attemptColumns+` FROM quiz_attempts
		WHERE quiz_id=$1 AND NOT is_completed
		ORDER BY started_at DESC LIMIT 1`, quizID)
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, false, nil
	}
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("incomplete attempt: %w", err)
	}
	return a, true, nil
}

func (s *AttemptStore) LatestAttemptForQuiz(ctx context.Context, quizID int64) (domain.Attempt, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+attemptColumns+` FROM quiz_attempts
		WHERE quiz_id=$1
		ORDER BY started_at DESC LIMIT 1`, quizID)
	a, err := scanAttempt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, false, nil
	}
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("latest attempt: %w", err)
	}
	return a, true, nil
}

func (s *AttemptStore) HasCompletedQuiz(ctx context.Context, quizID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quiz_attempts WHERE quiz_id=$1 AND is_completed)`,
		quizID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has completed quiz: %w", err)
	}
	return exists, nil
}

func (s *AttemptStore) UpdateAttemptTimeTaken(ctx context.Context, id int64, seconds int) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE quiz_attempts SET time_taken=$2 WHERE id=$1`,
		id, timeutil.Validate(seconds),
	)
	if err != nil {
		return false, fmt.Errorf("update time taken: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *AttemptStore) SaveResult(ctx context.Context, r domain.Result) error {
	correct, err := json.Marshal(emptyIfNil(r.CorrectAnswers))
	if err != nil {
		return fmt.Errorf("marshal correct answers: %w", err)
	}
	incorrect, err := json.Marshal(emptyIfNil(r.IncorrectAnswers))
	if err != nil {
		return fmt.Errorf("marshal incorrect answers: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_results (
			attempt_id, score, total_questions, percentage,
			time_taken, is_passed, correct_answers, incorrect_answers
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (attempt_id) DO UPDATE SET
			score = EXCLUDED.score,
			total_questions = EXCLUDED.total_questions,
			percentage = EXCLUDED.percentage,
			time_taken = EXCLUDED.time_taken,
			is_passed = EXCLUDED.is_passed,
			correct_answers = EXCLUDED.correct_answers,
			incorrect_answers = EXCLUDED.incorrect_answers`,
		r.AttemptID, r.Score, r.TotalQuestions, r.Percentage,
		timeutil.Validate(r.TimeTaken), r.IsPassed, correct, incorrect,
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *AttemptStore) ResultByAttemptID(ctx context.Context, attemptID int64) (domain.Result, error) {
	var (
		r         domain.Result
		correct   []byte
		incorrect []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT attempt_id, score, total_questions, percentage,
			time_taken, is_passed, correct_answers, incorrect_answers
		FROM quiz_results WHERE attempt_id=$1`, attemptID,
	).Scan(&r.AttemptID, &r.Score, &r.TotalQuestions, &r.Percentage,
		&r.TimeTaken, &r.IsPassed, &correct, &incorrect)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("result by attempt id: %w", err)
	}
	if err := json.Unmarshal(correct, &r.CorrectAnswers); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal correct answers: %w", err)
	}
	if err := json.Unmarshal(incorrect, &r.IncorrectAnswers); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal incorrect answers: %w", err)
	}
	return r, nil
}

func (s *AttemptStore) ClearAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE quiz_results, quiz_attempts`)
	if err != nil {
		return fmt.Errorf("clear all: %w", err)
	}
	return nil
}

// ClearOlderThan runs in one transaction so results never outlive the
// attempt they belong to.
func (s *AttemptStore) ClearOlderThan(ctx context.Context, days int) error {
	cutoff := s.now().AddDate(0, 0, -days)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin prune: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM quiz_attempts WHERE started_at < $1`, cutoff); err != nil {
		return fmt.Errorf("prune attempts: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM quiz_results
		WHERE attempt_id NOT IN (SELECT id FROM quiz_attempts)`); err != nil {
		return fmt.Errorf("prune results: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *AttemptStore) queryAttempts(ctx context.Context, sql string, args ...any) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (domain.Attempt, error) {
	var a domain.Attempt
	err := row.Scan(
		&a.ID, &a.QuizID, &a.ParticipantName, &a.ParticipantEmail,
		&a.Score, &a.TotalQuestions, &a.TimeTaken,
		&a.StartedAt, &a.CompletedAt, &a.IsCompleted,
	)
	return a, err
}

func emptyIfNil(details []domain.AnswerDetail) []domain.AnswerDetail {
	if details == nil {
		return []domain.AnswerDetail{}
	}
	return details
}
