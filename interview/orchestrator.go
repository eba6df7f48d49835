package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"hirevox/api"
	"hirevox/etc"
	"hirevox/store"
	"hirevox/stt"
)

// FallbackAnswer is committed when the candidate skips a question.
const FallbackAnswer = "No response provided"

// minAnswerRunes is the shortest final transcript accepted without the
// retry-or-skip gate.
const minAnswerRunes = 3

var (
	ErrAlreadyRunning     = errors.New("interview already running")
	ErrNoQuestions        = errors.New("no questions supplied")
	ErrChannelUnavailable = errors.New("speech channel unavailable")
	ErrAborted            = errors.New("interview aborted")
	ErrNotListening       = errors.New("interview is not listening")
	ErrNotFinished        = errors.New("interview not finished")
)

// SpeechChannel is the one voice session the orchestrator owns. Speak
// fully completes, success or error, before Listen is ever issued.
type SpeechChannel interface {
	Supported() bool
	Speak(ctx context.Context, text string) error
	Listen(ctx context.Context, onInterim func(string)) (string, error)
	Stop()
}

// Backend covers the two remote calls the interview loop makes.
type Backend interface {
	SaveTranscript(ctx context.Context, question, answer string) error
	ScoreTranscript(ctx context.Context) (api.Scores, error)
}

// RecordSink receives the single record of a successfully scored run.
type RecordSink interface {
	Append(rec store.InterviewRecord)
}

// Confirmer resolves the retry-or-skip decision point interactively.
type Confirmer interface {
	Decide(question, reason string) Decision
}

// Notifier surfaces transient user-facing messages.
type Notifier interface {
	Notify(level, message string)
}

// Orchestrator drives the ask → listen → capture → advance loop over one
// question sequence, then hands the run off to scoring. All collaborators
// are injected; the orchestrator holds no global state.
type Orchestrator struct {
	channel SpeechChannel
	backend Backend
	results RecordSink
	confirm Confirmer
	notify  Notifier
	logger  *log.Logger

	// OnInterim receives advisory transcript fragments for display.
	OnInterim func(text string)
	// OnQuestion is told when a question is about to be asked.
	OnQuestion func(index, total int, question string)
	// OnAnswer is told when an answer has been committed.
	OnAnswer func(answer string)

	mu        sync.Mutex
	state     State
	candidate store.CandidateInfo
	questions []string
	pairs     []store.QAPair
}

func New(
	channel SpeechChannel,
	backend Backend,
	results RecordSink,
	confirm Confirmer,
	notify Notifier,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		channel: channel,
		backend: backend,
		results: results,
		confirm: confirm,
		notify:  notify,
		logger:  logger,
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Pairs returns a copy of the answers committed so far.
func (o *Orchestrator) Pairs() []store.QAPair {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]store.QAPair(nil), o.pairs...)
}

// Start validates preconditions, then runs the interview to completion.
// It blocks for the duration of the run; callers wanting concurrency run
// it on its own goroutine. Validation failures return immediately with
// the state unchanged.
func (o *Orchestrator) Start(
	ctx context.Context,
	candidate store.CandidateInfo,
	questions []string,
) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	if len(questions) == 0 {
		o.mu.Unlock()
		return ErrNoQuestions
	}
	if !o.channel.Supported() {
		o.mu.Unlock()
		return ErrChannelUnavailable
	}
	o.candidate = candidate
	o.questions = append([]string(nil), questions...)
	o.pairs = nil
	o.state = StateAsking
	o.mu.Unlock()

	return o.run(ctx)
}

func (o *Orchestrator) run(ctx context.Context) error {
	total := len(o.questions)

	for i, question := range o.questions {
		if o.OnQuestion != nil {
			o.OnQuestion(i, total, question)
		}

		answer, err := o.askOne(ctx, i, question)
		if err != nil {
			o.setState(StateAborted)
			return err
		}

		// The pair is committed locally before the next question's
		// utterance starts.
		o.setState(StateSaving)
		o.mu.Lock()
		o.pairs = append(o.pairs, store.QAPair{
			Question: question,
			Answer:   answer,
		})
		o.mu.Unlock()

		if o.OnAnswer != nil {
			o.OnAnswer(answer)
		}

		if err := o.backend.SaveTranscript(ctx, question, answer); err != nil {
			// Best-effort: a transient storage failure must never stall
			// the interview.
			o.logger.Error("save transcript", "question", i+1, "error", err)
		}
	}

	return o.score(ctx)
}

// askOne runs the speak/listen cycle for a single question, looping
// through the retry-or-skip gate until an answer is settled.
func (o *Orchestrator) askOne(
	ctx context.Context,
	index int,
	question string,
) (string, error) {
	o.setState(StateAsking)
	if err := o.channel.Speak(ctx, question); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Synthesis failure does not block the question; the candidate
		// still sees it and recognition proceeds.
		o.logger.Error("speak", "question", index+1, "error", err)
	}

	for {
		o.setState(StateListening)
		transcript, err := o.channel.Listen(ctx, o.OnInterim)
		// A cancelled run must never reach the retry-or-skip gate, even
		// when the cooperative stop made the session look clean.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if err != nil {
			kind := stt.KindOf(err)
			o.logger.Error("listen",
				"question", index+1,
				"kind", kind.String(),
				"error", err,
			)
			o.notify.Notify("error", kind.Message())

			switch o.confirm.Decide(question, kind.Message()) {
			case Retry:
				continue
			case Skip:
				return FallbackAnswer, nil
			default:
				return "", ErrAborted
			}
		}

		answer := strings.TrimSpace(transcript)
		if utf8.RuneCountInString(answer) < minAnswerRunes {
			o.notify.Notify("error", "No clear answer was detected.")
			switch o.confirm.Decide(question, "No clear answer was detected.") {
			case Retry:
				continue
			case Skip:
				return FallbackAnswer, nil
			default:
				return "", ErrAborted
			}
		}

		return answer, nil
	}
}

// score issues the single scoring call and, on success, commits the one
// record of the run. A failed scoring attempt is terminal: the run still
// completes, just without a record, and retrying means a fresh interview.
func (o *Orchestrator) score(ctx context.Context) error {
	o.setState(StateScoring)

	scores, err := o.backend.ScoreTranscript(ctx)
	if err != nil {
		o.notify.Notify("error", "Score calculation failed.")
		o.setState(StateCompleted)
		return fmt.Errorf("score transcript: %w", err)
	}

	detailed := make([]store.CategoryScore, len(scores.Scores))
	for i, s := range scores.Scores {
		detailed[i] = store.CategoryScore{Label: s.Label, Score: s.Score}
	}

	now := time.Now()
	o.mu.Lock()
	rec := store.InterviewRecord{
		ID:             etc.NewRecordID(),
		Candidate:      o.candidate,
		OverallScore:   scores.Overall,
		Timestamp:      now,
		QAPairs:        append([]store.QAPair(nil), o.pairs...),
		DetailedScores: detailed,
	}
	o.mu.Unlock()

	o.results.Append(rec)
	o.notify.Notify("success", fmt.Sprintf(
		"Interview completed. Overall score: %.1f%%", scores.Overall,
	))
	o.setState(StateCompleted)
	return nil
}

// Stop force-stops the active recognition session. It is only valid
// while listening; the session then completes through the normal path
// with whatever partial transcript exists.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	listening := o.state == StateListening
	o.mu.Unlock()

	if !listening {
		return ErrNotListening
	}
	o.channel.Stop()
	return nil
}

// Reset returns a finished orchestrator to Idle, clearing everything the
// run accumulated.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateCompleted && o.state != StateAborted {
		return ErrNotFinished
	}
	o.candidate = store.CandidateInfo{}
	o.questions = nil
	o.pairs = nil
	o.state = StateIdle
	return nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
