package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docchat/bookingbot/internal/observability/metrics"
	"github.com/docchat/bookingbot/pkg/logging"
)

// DefaultFieldAttempts is the per-field retry budget.
const DefaultFieldAttempts = 3

// Saver hands a finalized record to the persistence collaborator and
// returns its storage identifier.
type Saver interface {
	Save(ctx context.Context, rec Record) (string, error)
}

// Response is the engine's output for one turn: the system utterance, a
// state label, and a snapshot of the record so far.
type Response struct {
	Text   string
	State  string
	Record *Record
}

// Engine is the conversational form state machine. It owns no clock: now
// is injected on every turn so processing is deterministic and testable.
type Engine struct {
	sessions  *SessionStore
	extractor Extractor
	saver     Saver
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
	attempts  int
}

// NewEngine constructs the form engine. The session store and saver are
// required; a nil extractor falls back to the regex one and attempts <= 0
// falls back to the default budget.
func NewEngine(sessions *SessionStore, extractor Extractor, saver Saver, logger *logging.Logger, m *metrics.BookingMetrics, attempts int) *Engine {
	if sessions == nil {
		panic("booking: session store required")
	}
	if saver == nil {
		panic("booking: saver required")
	}
	if extractor == nil {
		extractor = NewRegexExtractor()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if attempts <= 0 {
		attempts = DefaultFieldAttempts
	}
	return &Engine{
		sessions:  sessions,
		extractor: extractor,
		saver:     saver,
		logger:    logger.Component("booking_engine"),
		metrics:   m,
		attempts:  attempts,
	}
}

// Active reports whether sessionID has a booking flow in progress.
func (e *Engine) Active(sessionID string) bool {
	return e.sessions.Active(sessionID)
}

// ProcessTurn runs exactly one engine transition for one user message.
// Validation and parse errors are recovered into corrective prompts and
// never returned; the returned error is non-nil only for retry exhaustion
// (ErrRetryExhausted) and failed persistence (ErrStorage), and in both
// cases Response.Text still carries the user-facing reply.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, utterance string, now time.Time) (Response, error) {
	start := time.Now()
	sess, created := e.sessions.Acquire(sessionID, now)
	defer e.sessions.Release(sess)

	resp, err := e.processLocked(ctx, sess, created, utterance, now)
	e.metrics.ObserveTurn(resp.State)
	e.metrics.ObserveTurnLatency(time.Since(start).Seconds())
	return resp, err
}

func (e *Engine) processLocked(ctx context.Context, sess *Session, created bool, utterance string, now time.Time) (Response, error) {
	st := &sess.State
	if created || st.Phase == PhaseIdle || st.Phase.Terminal() {
		st.start(now, e.attempts)
		e.logger.Info("booking flow started", "session_id", sess.ID)
		greeting := "I'd be happy to help you book an appointment! Let's start by collecting some information. "
		return e.respond(st, greeting+prompt(FieldName)), nil
	}

	text := strings.TrimSpace(utterance)
	switch st.Phase {
	case PhaseConfirming:
		return e.confirmTurn(ctx, sess, text)
	default:
		return e.collectTurn(sess, text, now)
	}
}

func (e *Engine) collectTurn(sess *Session, text string, now time.Time) (Response, error) {
	st := &sess.State
	if isCancellation(text) {
		return e.abandon(sess, "cancelled",
			"No problem, I've cancelled this booking request. Just say the word if you'd like to book later."), nil
	}

	missing := st.Record.Missing()
	candidates := e.extractor.Extract(text, missing, st.Current)

	var currentErr error
	filledCurrent := false
	filledAny := false
	for _, c := range candidates {
		normalized, dv, err := e.validateCandidate(c, now)
		if err != nil {
			// Only the currently targeted field's failure consumes a
			// retry attempt; stray candidates fail silently.
			if c.Field == st.Current && currentErr == nil {
				currentErr = err
			}
			continue
		}
		st.Record.set(c.Field, normalized, dv)
		filledAny = true
		if c.Field == st.Current {
			filledCurrent = true
		}
	}

	if !filledCurrent {
		if currentErr == nil && filledAny {
			// Progress on other fields, nothing offered for the current
			// one: repeat the request without spending an attempt.
			return e.respond(st, "Got it. "+prompt(st.Current)), nil
		}
		if currentErr == nil {
			currentErr = missingCandidateErr(st.Current)
		}
		return e.rejectCurrent(sess, currentErr)
	}

	completed := st.Current
	next, ok := firstMissing(&st.Record)
	if !ok {
		st.Phase = PhaseConfirming
		return e.respond(st, st.Record.Summary()+"\n\nShall I go ahead and book it? (yes/no)"), nil
	}
	st.Current = next

	ackText := ack(completed)
	if completed == FieldDate {
		ackText = fmt.Sprintf("Great! I've noted %s. ", st.Record.DateDisplay())
	}
	return e.respond(st, ackText+prompt(next)), nil
}

func (e *Engine) confirmTurn(ctx context.Context, sess *Session, text string) (Response, error) {
	st := &sess.State
	switch {
	case isAffirmative(text):
		rec := st.Record
		rec.Status = StatusConfirmed
		id, err := e.saver.Save(ctx, rec)
		if err != nil {
			e.logger.Error("appointment save failed", "session_id", sess.ID, "error", err)
			// Not confirmed: the record is only marked confirmed once
			// storage succeeds. The session stays in Confirming.
			return e.respond(st, "Sorry, I couldn't save your appointment just now. Say 'yes' to try again, or 'cancel' to stop."),
				fmt.Errorf("%w: %v", ErrStorage, err)
		}
		st.Record = rec
		st.Phase = PhaseConfirmed
		e.sessions.Remove(sess.ID)
		e.metrics.ObserveOutcome("confirmed")
		e.logger.Info("appointment confirmed", "session_id", sess.ID, "record_id", id)
		reply := fmt.Sprintf("Appointment booked successfully! Your reference is %s. We'll contact you soon to confirm the details. Is there anything else I can help you with?", id)
		return e.respond(st, reply), nil

	case isCancellation(text):
		return e.abandon(sess, "cancelled",
			"No problem, I've cancelled this booking request. Just say the word if you'd like to book later."), nil

	case isNegative(text):
		// Restart from scratch; targeted field correction is not offered.
		st.Record.clearFields()
		st.resetAttempts(e.attempts)
		st.Phase = PhaseCollecting
		st.Current = FieldName
		return e.respond(st, "No problem, let's start over. "+prompt(FieldName)), nil

	default:
		return e.respond(st, st.Record.Summary()+"\n\nPlease reply yes to confirm or no to start over."), nil
	}
}

func (e *Engine) rejectCurrent(sess *Session, cause error) (Response, error) {
	st := &sess.State
	st.Attempts[st.Current]--
	e.metrics.ObserveValidationFailure(st.Current.String(), errKind(cause))

	if st.Attempts[st.Current] <= 0 {
		reply := fmt.Sprintf("I'm sorry, I couldn't get a valid %s after several tries, so I've stopped this booking request. Feel free to start again whenever you're ready.", st.Current)
		resp := e.abandon(sess, "abandoned", reply)
		return resp, fmt.Errorf("%w: %s", ErrRetryExhausted, st.Current)
	}
	return e.respond(st, corrective(st.Current, cause)), nil
}

// abandon moves the session to its terminal failed state and discards it.
// Partially filled data is never persisted.
func (e *Engine) abandon(sess *Session, outcome, reply string) Response {
	st := &sess.State
	st.Phase = PhaseAbandoned
	st.Record.Status = StatusAbandoned
	e.sessions.Remove(sess.ID)
	e.metrics.ObserveOutcome(outcome)
	e.logger.Info("booking flow ended", "session_id", sess.ID, "outcome", outcome, "field", st.Current.String())
	return e.respond(st, reply)
}

func (e *Engine) validateCandidate(c Candidate, now time.Time) (string, DateValue, error) {
	switch c.Field {
	case FieldName:
		v, err := ValidateName(c.RawText)
		return v, DateValue{}, err
	case FieldPhone:
		v, err := ValidatePhone(c.RawText)
		return v, DateValue{}, err
	case FieldEmail:
		v, err := ValidateEmail(c.RawText)
		return v, DateValue{}, err
	case FieldReason:
		v, err := ValidateReason(c.RawText)
		return v, DateValue{}, err
	case FieldDate:
		dv, err := ValidateDate(c.RawText, now)
		return "", dv, err
	default:
		return "", DateValue{}, fmt.Errorf("booking: unknown field %d", c.Field)
	}
}

func (e *Engine) respond(st *FormState, text string) Response {
	rec := st.Record
	return Response{Text: text, State: stateLabel(st), Record: &rec}
}

func stateLabel(st *FormState) string {
	if st.Phase == PhaseCollecting {
		return "collecting_" + st.Current.String()
	}
	return st.Phase.String()
}

func firstMissing(r *Record) (Field, bool) {
	for _, f := range fieldOrder {
		if !r.Has(f) {
			return f, true
		}
	}
	return 0, false
}

func missingCandidateErr(f Field) error {
	switch f {
	case FieldName:
		return ErrInvalidName
	case FieldPhone:
		return ErrInvalidPhone
	case FieldEmail:
		return ErrInvalidEmail
	case FieldDate:
		return ErrDateParse
	default:
		return ErrInvalidReason
	}
}

func errKind(err error) string {
	switch {
	case errors.Is(err, ErrPastDate):
		return "past_date"
	case errors.Is(err, ErrDateParse):
		return "date_parse"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrInvalidPhone):
		return "invalid_phone"
	case errors.Is(err, ErrInvalidEmail):
		return "invalid_email"
	case errors.Is(err, ErrInvalidReason):
		return "invalid_reason"
	default:
		return "invalid"
	}
}

func (st *FormState) start(now time.Time, attempts int) {
	st.Phase = PhaseCollecting
	st.Current = FieldName
	st.resetAttempts(attempts)
	st.Record = Record{Status: StatusDraft, CreatedAt: now}
}

func (st *FormState) resetAttempts(attempts int) {
	st.Attempts = make(map[Field]int, len(fieldOrder))
	for _, f := range fieldOrder {
		st.Attempts[f] = attempts
	}
}

var affirmativePhrases = phraseSet(
	"yes", "y", "yeah", "yep", "yup", "sure", "correct", "confirm", "ok", "okay",
	"that's right", "sounds good", "go ahead",
)

var negativePhrases = phraseSet(
	"no", "n", "nope", "nah", "wrong", "not right", "change it", "start over",
)

var cancellationPhrases = phraseSet(
	"cancel", "never mind", "nevermind", "stop", "quit", "forget it",
)

func phraseSet(phrases ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		s[p] = struct{}{}
	}
	return s
}

func normalizePhrase(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.TrimRight(t, ".!?")
}

func isAffirmative(text string) bool {
	_, ok := affirmativePhrases[normalizePhrase(text)]
	return ok
}

func isNegative(text string) bool {
	_, ok := negativePhrases[normalizePhrase(text)]
	return ok
}

func isCancellation(text string) bool {
	_, ok := cancellationPhrases[normalizePhrase(text)]
	return ok
}
