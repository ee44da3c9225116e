// Package chatbot routes user queries to a response mode and drives the
// guarded incident-response flow over retrieved runbook content.
package chatbot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/runbookops/runbook-agent/internal/llm"
	"github.com/runbookops/runbook-agent/internal/router"
	"github.com/runbookops/runbook-agent/internal/runbook"
	"github.com/runbookops/runbook-agent/internal/score"
	"github.com/runbookops/runbook-agent/internal/session"
	"github.com/runbookops/runbook-agent/internal/vectordb"
)

// DefaultTopK is the fixed number of index entries retrieved per incident query.
const DefaultTopK = 3

// RunbookSource supplies parsed runbooks for analysis mode and for
// resolving retrieved entries back to their documents.
type RunbookSource interface {
	List(ctx context.Context) ([]*runbook.Runbook, error)
	Get(ctx context.Context, path string) (*runbook.Runbook, error)
}

// Config holds the fixed policy sets of the chatbot. Tests substitute
// alternates; production uses DefaultConfig.
type Config struct {
	TopK                int
	Model               string
	DestructiveKeywords []string

	// AffirmativeKeywords approve a pending destructive command. The set
	// is fixed; anything that matches neither set is ambiguous and keeps
	// the session awaiting confirmation.
	AffirmativeKeywords []string
	NegativeKeywords    []string
}

// DefaultConfig returns the production policy, sharing the destructive
// keyword set with the scoring rubric.
func DefaultConfig() Config {
	return Config{
		TopK:                DefaultTopK,
		DestructiveKeywords: score.DefaultRubric().DestructiveKeywords,
		AffirmativeKeywords: []string{
			"yes", "y", "confirm", "confirmed", "proceed", "go ahead",
			"approved", "approve", "do it",
		},
		NegativeKeywords: []string{
			"no", "n", "cancel", "stop", "abort", "decline", "negative",
		},
	}
}

// Turn is the outcome of processing one user message.
type Turn struct {
	SessionID string
	Mode      router.Mode
	State     session.State
	Response  string
	Retrieved []vectordb.SearchResult
}

// Chatbot composes responses from the intent router, the vector index, the
// scorer and the LLM. One Chatbot serves many sessions; per-conversation
// state lives in the session store only.
type Chatbot struct {
	router   *router.Router
	index    vectordb.Index
	scorer   *score.Scorer
	source   RunbookSource
	sessions session.Store
	provider llm.Provider // nil means offline composition
	cfg      Config
}

// New creates a Chatbot. provider may be nil, in which case responses are
// composed from retrieved content without an LLM narrative.
func New(r *router.Router, idx vectordb.Index, sc *score.Scorer, src RunbookSource, sessions session.Store, provider llm.Provider, cfg Config) *Chatbot {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Chatbot{
		router:   r,
		index:    idx,
		scorer:   sc,
		source:   src,
		sessions: sessions,
		provider: provider,
		cfg:      cfg,
	}
}

// Process handles one user turn. A non-empty sessionID continues an
// existing conversation; if that session is awaiting confirmation the
// message is interpreted as the operator's decision. Otherwise the message
// is classified and dispatched to its mode handler.
func (c *Chatbot) Process(ctx context.Context, sessionID, message string) (*Turn, error) {
	if sessionID != "" {
		sess, err := c.sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
		}
		if sess != nil && sess.State == session.StateAwaitingConfirmation {
			return c.handleConfirmation(ctx, sess, message)
		}
	}

	mode := c.router.Classify(message)
	switch mode {
	case router.ModeIncident:
		return c.handleIncident(ctx, message)
	case router.ModeAnalysis:
		return c.handleAnalysis(ctx, message)
	default:
		return c.handleCare(ctx, message)
	}
}

// handleAnalysis scores the runbook fleet and renders a health report.
// Scoring is deterministic and needs no LLM.
func (c *Chatbot) handleAnalysis(ctx context.Context, message string) (*Turn, error) {
	books, err := c.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading runbooks for analysis: %w", err)
	}
	if len(books) == 0 {
		return &Turn{
			Mode:     router.ModeAnalysis,
			State:    session.StateClosed,
			Response: "No runbooks are available to analyze. Ingest a runbook directory first.",
		}, nil
	}

	reports := make([]score.Report, 0, len(books))
	for _, rb := range books {
		reports = append(reports, c.scorer.Score(rb))
	}

	return &Turn{
		Mode:     router.ModeAnalysis,
		State:    session.StateClosed,
		Response: renderAnalysis(reports),
	}, nil
}

// handleCare passes the query to the LLM with a support prompt. Without a
// provider, or when the provider fails, it falls back to usage guidance.
func (c *Chatbot) handleCare(ctx context.Context, message string) (*Turn, error) {
	turn := &Turn{Mode: router.ModeCare, State: session.StateClosed}

	if c.provider == nil {
		turn.Response = careFallback
		return turn, nil
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.cfg.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: carePrompt},
			{Role: llm.RoleUser, Content: message},
		},
		Temperature: 0.3,
	})
	if err != nil {
		log.Printf("chatbot: care completion failed: %v", err)
		turn.Response = completionUnavailableMessage
		return turn, nil
	}
	turn.Response = strings.TrimSpace(resp.Content)
	return turn, nil
}

// degradeToCare is the incident path's fallback when retrieval is
// unavailable: a care-mode response citing the failure, never a crash.
func degradeToCare(err error) *Turn {
	return &Turn{
		Mode:  router.ModeCare,
		State: session.StateClosed,
		Response: "I couldn't search the runbook index just now (" + err.Error() + "). " +
			"This is usually transient; please try again in a moment.",
	}
}
