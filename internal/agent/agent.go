// Package agent runs the conversational loop: resolve the session,
// alternate generation and tool dispatch until the model stops asking
// for tools, then persist the grown history.
package agent

import (
	"log/slog"

	"github.com/Sajidcodes/perplexity/internal/model"
	"github.com/Sajidcodes/perplexity/internal/session"
	"github.com/Sajidcodes/perplexity/internal/tools"
)

// DefaultMaxRounds bounds the generate/dispatch alternation of one turn.
const DefaultMaxRounds = 8

// state is the loop's position inside a turn.
type state int

const (
	stateGenerating state = iota
	stateRouting
	stateDispatching
	stateDone
)

func (s state) String() string {
	switch s {
	case stateGenerating:
		return "generating"
	case stateRouting:
		return "routing"
	case stateDispatching:
		return "dispatching"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Input is one user turn.
type Input struct {
	// SessionID selects the conversation to continue. Empty mints a new
	// session, announced to the client via a checkpoint frame.
	SessionID string
	// Message is the user's utterance.
	Message string
}

// Config assembles an Agent.
type Config struct {
	Store      session.Store
	Model      model.Generator
	Dispatcher *tools.Dispatcher
	Logger     *slog.Logger
	// MaxRounds bounds generation rounds per turn. Zero means
	// DefaultMaxRounds.
	MaxRounds int
}

// Agent owns the turn loop. Safe for concurrent use; each Stream call is
// an independent turn.
type Agent struct {
	store      session.Store
	model      model.Generator
	dispatcher *tools.Dispatcher
	logger     *slog.Logger
	maxRounds  int
}

// New creates an Agent.
func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Agent{
		store:      cfg.Store,
		model:      cfg.Model,
		dispatcher: cfg.Dispatcher,
		logger:     logger,
		maxRounds:  maxRounds,
	}
}
