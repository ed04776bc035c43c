package domain

import "time"

// UpsertAttempt replaces the record with the same id or appends a new one.
// The collection never holds two records for one attempt id.
func UpsertAttempt(attempts []Attempt, attempt Attempt) []Attempt {
	out := make([]Attempt, 0, len(attempts)+1)
	for _, a := range attempts {
		if a.ID != attempt.ID {
			out = append(out, a)
		}
	}
	return append(out, attempt)
}

// UpsertResult replaces the record with the same attempt id or appends.
func UpsertResult(results []Result, result Result) []Result {
	out := make([]Result, 0, len(results)+1)
	for _, r := range results {
		if r.AttemptID != result.AttemptID {
			out = append(out, r)
		}
	}
	return append(out, result)
}

// AttemptsForQuiz filters the collection down to one quiz.
func AttemptsForQuiz(attempts []Attempt, quizID int64) []Attempt {
	var out []Attempt
	for _, a := range attempts {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out
}

// LatestAttemptForQuiz returns the attempt with the newest started_at.
func LatestAttemptForQuiz(attempts []Attempt, quizID int64) (Attempt, bool) {
	var latest Attempt
	found := false
	for _, a := range attempts {
		if a.QuizID != quizID {
			continue
		}
		if !found || a.StartedAt.After(latest.StartedAt) {
			latest = a
			found = true
		}
	}
	return latest, found
}

// IncompleteAttemptForQuiz returns the resumable attempt for a quiz. When
// several incomplete attempts exist (for example from two tabs), only the
// most recently started one is surfaced.
func IncompleteAttemptForQuiz(attempts []Attempt, quizID int64) (Attempt, bool) {
	var best Attempt
	found := false
	for _, a := range attempts {
		if a.QuizID != quizID || a.IsCompleted {
			continue
		}
		if !found || a.StartedAt.After(best.StartedAt) {
			best = a
			found = true
		}
	}
	return best, found
}

// HasCompletedQuiz reports whether any completed attempt exists for the quiz.
func HasCompletedQuiz(attempts []Attempt, quizID int64) bool {
	for _, a := range attempts {
		if a.QuizID == quizID && a.IsCompleted {
			return true
		}
	}
	return false
}

// PruneOlderThan drops attempts started before the cutoff and the results
// whose attempt no longer survives, keeping the two collections referentially
// consistent.
func PruneOlderThan(attempts []Attempt, results []Result, cutoff time.Time) ([]Attempt, []Result) {
	kept := make([]Attempt, 0, len(attempts))
	surviving := make(map[int64]struct{}, len(attempts))
	for _, a := range attempts {
		if a.StartedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, a)
		surviving[a.ID] = struct{}{}
	}

	keptResults := make([]Result, 0, len(results))
	for _, r := range results {
		if _, ok := surviving[r.AttemptID]; ok {
			keptResults = append(keptResults, r)
		}
	}
	return kept, keptResults
}
