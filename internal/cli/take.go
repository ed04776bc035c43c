package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-session-client/internal/app"
	"quiz-session-client/internal/config"
	"quiz-session-client/internal/domain"
	"quiz-session-client/internal/timeutil"
	"github.com/spf13/cobra"
)

// NewTakeCmd runs an interactive quiz session in the terminal.
func NewTakeCmd(configPath *string) *cobra.Command {
	var (
		name  string
		email string
	)
	cmd := &cobra.Command{
		Use:   "take <quiz-id>",
		Short: "Take a quiz interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quiz id %q", args[0])
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			svc, closer, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer()
			return runTake(cmd.Context(), svc, quizID, domain.Participant{Name: name, Email: email},
				cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "participant name")
	cmd.Flags().StringVar(&email, "email", "", "participant email")
	return cmd
}

func runTake(ctx context.Context, svc *app.AttemptService, quizID int64, participant domain.Participant, in io.Reader, out io.Writer) error {
	reader := bufio.NewScanner(in)

	// The time-up callback fires from the engine's timer goroutine, which can
	// happen before Start has even returned the session. It waits for the
	// handshake, then submits whatever answers are on the session.
	var sess *app.ActiveSession
	sessReady := make(chan struct{})

	sess, err := svc.Start(ctx, quizID, app.StartOptions{
		Participant: participant,
		AcceptResume: func(attempt domain.Attempt) bool {
			fmt.Fprintf(out, "Found an unfinished attempt started at %s. Resume it? [Y/n] ",
				attempt.StartedAt.Format("2006-01-02 15:04"))
			if !reader.Scan() {
				return true
			}
			answer := strings.ToLower(strings.TrimSpace(reader.Text()))
			return answer != "n" && answer != "no"
		},
		OnTimeUp: func() {
			<-sessReady
			fmt.Fprintln(out, "\nTime is up. Submitting your answers.")
			result, err := svc.Submit(ctx, sess)
			if err != nil {
				fmt.Fprintf(out, "Submit failed: %v\n", err)
				return
			}
			printResult(out, result)
			fmt.Fprintln(out, "Press enter to exit.")
		},
	})
	if err != nil {
		close(sessReady)
		return err
	}
	defer sess.Engine.Close()
	close(sessReady)

	fmt.Fprintf(out, "\n%s\n", sess.Quiz.Title)
	if sess.Quiz.Description != "" {
		fmt.Fprintln(out, sess.Quiz.Description)
	}
	if sess.Resumed {
		fmt.Fprintf(out, "Resumed with %s already on the clock.\n",
			timeutil.FormatTime(sess.Engine.ElapsedTime()))
	}
	if sess.Engine.HasTimeLimit() {
		fmt.Fprintf(out, "Time limit: %s\n", timeutil.FormatTime(sess.Quiz.TimeLimit))
	}

	for !sess.Engine.IsSubmitted() {
		i := sess.Engine.CurrentIndex()
		if i >= len(sess.Quiz.Questions) {
			break
		}
		q := sess.Quiz.Questions[i]
		printQuestion(out, sess, i, q)

		fmt.Fprint(out, "> ")
		if !reader.Scan() {
			break
		}
		if sess.Engine.IsSubmitted() {
			// The clock ran out while waiting for input.
			return nil
		}
		input := strings.TrimSpace(reader.Text())

		switch {
		case input == "n":
			sess.Engine.GoToNext()
		case input == "p":
			sess.Engine.GoToPrevious()
		case input == "s":
			if !sess.Engine.CanSubmit() {
				fmt.Fprintln(out, "Answer at least one question before submitting.")
				continue
			}
			if !sess.Engine.IsComplete() {
				progress := sess.Engine.GetProgress()
				fmt.Fprintf(out, "Only %d of %d answered. Submit anyway? [y/N] ",
					progress.Answered, progress.Total)
				if !reader.Scan() {
					return nil
				}
				confirm := strings.ToLower(strings.TrimSpace(reader.Text()))
				if confirm != "y" && confirm != "yes" {
					continue
				}
			}
			result, err := svc.Submit(ctx, sess)
			if err != nil {
				return err
			}
			printResult(out, result)
			return nil
		case input == "q":
			fmt.Fprintln(out, "Progress saved. Run take again to resume.")
			return nil
		default:
			if applyAnswer(sess, q, input) {
				if !sess.Engine.IsLastQuestion() {
					sess.Engine.GoToNext()
				}
			} else {
				fmt.Fprintln(out, "Pick an option number, or n/p to move, s to submit, q to quit.")
			}
		}
	}
	return nil
}

func printQuestion(out io.Writer, sess *app.ActiveSession, i int, q domain.Question) {
	fmt.Fprintf(out, "\n[%d/%d]", i+1, len(sess.Quiz.Questions))
	if sess.Engine.HasTimeLimit() {
		remaining := sess.Engine.Remaining()
		fmt.Fprintf(out, " %s left", timeutil.FormatTime(remaining))
		if timeutil.IsCritical(remaining) {
			fmt.Fprint(out, " (!)")
		}
	}
	fmt.Fprintf(out, "\n%s\n", q.Text)
	if q.Type == domain.QuestionText {
		fmt.Fprintln(out, "(type your answer)")
	} else {
		for n, opt := range q.Options {
			marker := " "
			if a, ok := sess.Engine.Answer(q.ID); ok && a.SelectedOptionID == opt.ID {
				marker = "*"
			}
			fmt.Fprintf(out, " %s%d. %s\n", marker, n+1, opt.Text)
		}
	}
}

func applyAnswer(sess *app.ActiveSession, q domain.Question, input string) bool {
	if q.Type == domain.QuestionText {
		if input == "" {
			return false
		}
		sess.Engine.SetAnswer(q.ID, domain.Answer{QuestionID: q.ID, TextAnswer: input})
		return true
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(q.Options) {
		return false
	}
	sess.Engine.SetAnswer(q.ID, domain.Answer{
		QuestionID:       q.ID,
		SelectedOptionID: q.Options[n-1].ID,
	})
	return true
}

func printResult(out io.Writer, result domain.Result) {
	fmt.Fprintf(out, "\nScore: %d/%d (%.0f%%)\n", result.Score, result.TotalQuestions, result.Percentage)
	fmt.Fprintf(out, "Time: %s\n", timeutil.FormatTime(result.TimeTaken))
	if result.IsPassed {
		fmt.Fprintln(out, "Passed.")
	} else {
		fmt.Fprintln(out, "Not passed.")
	}
	if len(result.IncorrectAnswers) > 0 {
		fmt.Fprintln(out, "\nReview:")
		for _, d := range result.IncorrectAnswers {
			fmt.Fprintf(out, "  %s\n    your answer: %s\n", d.Question, d.UserAnswer)
			if d.CorrectAnswer != "" {
				fmt.Fprintf(out, "    correct: %s\n", d.CorrectAnswer)
			}
		}
	}
}
