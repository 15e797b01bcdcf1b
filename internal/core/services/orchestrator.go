package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/policy"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

var (
	ErrMissingSession = errors.New("service: session id is required")
	ErrEmptyMessage   = errors.New("service: message is required")
)

// DefaultModelTimeout bounds a single language model call.
const DefaultModelTimeout = 30 * time.Second

// Options tunes the Orchestrator. Zero fields fall back to defaults.
type Options struct {
	Policy        policy.Finalization
	Coverage      policy.CoverageScorer
	Names         policy.NameDetector
	SongsMin      int
	SongsMax      int
	HistoryWindow int
	Temperature   float64
	MaxTokens     int
	ModelTimeout  time.Duration
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		Policy:        policy.DefaultFinalization(),
		Coverage:      policy.NewKeywordCoverage(),
		Names:         policy.NewIntroductionDetector(),
		SongsMin:      5,
		SongsMax:      10,
		HistoryWindow: 6,
		Temperature:   0.7,
		MaxTokens:     600,
		ModelTimeout:  DefaultModelTimeout,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Policy == (policy.Finalization{}) {
		o.Policy = d.Policy
	}
	if o.Coverage == nil {
		o.Coverage = d.Coverage
	}
	if o.Names == nil {
		o.Names = d.Names
	}
	if o.SongsMin <= 0 {
		o.SongsMin = d.SongsMin
	}
	if o.SongsMax < o.SongsMin {
		o.SongsMax = max(d.SongsMax, o.SongsMin)
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = d.HistoryWindow
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = d.MaxTokens
	}
	if o.ModelTimeout <= 0 {
		o.ModelTimeout = d.ModelTimeout
	}
	return o
}

// Status is the read-only account projection of a session.
type Status struct {
	Authenticated bool             `json:"authenticated"`
	Identity      *domain.Identity `json:"identity,omitempty"`
}

// TurnResult is what one chat turn returns to the caller.
type TurnResult struct {
	Messages    []domain.Message    `json:"messages"`
	Pending     bool                `json:"pending"`
	Suggestions []domain.Suggestion `json:"suggestions"`
	Finalized   bool                `json:"finalized"`
	Playlist    *domain.Playlist    `json:"playlist"`
	Mood        string              `json:"mood,omitempty"`
	Phase       domain.Phase        `json:"phase"`
	Unresolved  []string            `json:"unresolved,omitempty"`
}

// Orchestrator runs the conversation: it keeps history, applies the
// finalization policy, calls the language model and turns structured replies
// into playlists.
type Orchestrator struct {
	store    ports.SessionStore
	llm      ports.LanguageModel
	resolver *Resolver
	recorder ports.PlaylistRecorder
	opts     Options
	now      func() time.Time
	newID    func() string
}

// NewOrchestrator constructs an Orchestrator. recorder may be nil.
func NewOrchestrator(store ports.SessionStore, llm ports.LanguageModel, resolver *Resolver, recorder ports.PlaylistRecorder, opts Options) *Orchestrator {
	return &Orchestrator{
		store:    store,
		llm:      llm,
		resolver: resolver,
		recorder: recorder,
		opts:     opts.withDefaults(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// StartSession allocates a new session and returns its identifier.
func (o *Orchestrator) StartSession(ctx context.Context) (string, error) {
	id := o.newID()
	if _, err := o.store.GetOrCreate(ctx, id); err != nil {
		return "", fmt.Errorf("service: failed to create session: %w", err)
	}
	return id, nil
}

// Status reports whether the session has linked a catalog account.
func (o *Orchestrator) Status(ctx context.Context, sessionID string) (Status, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Status{}, ErrMissingSession
	}
	s, err := o.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return Status{}, fmt.Errorf("service: failed to load session: %w", err)
	}
	st := Status{Authenticated: s.Authenticated()}
	if st.Authenticated && s.Identity != nil {
		id := *s.Identity
		st.Identity = &id
	}
	return st, nil
}

// SendMessage runs one chat turn. On a language model failure the user
// message stays in history and the returned error wraps domain.ErrUpstreamModel.
// Catalog failures wrap domain.ErrUpstreamCatalog.
func (o *Orchestrator) SendMessage(ctx context.Context, sessionID, text, lang string) (TurnResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return TurnResult{}, ErrMissingSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	var result TurnResult
	err := o.store.Mutate(ctx, sessionID, func(s *domain.Session) error {
		var err error
		result, err = o.turn(ctx, s, text, lang)
		return err
	})
	if err != nil {
		return TurnResult{}, err
	}
	return result, nil
}

func (o *Orchestrator) turn(ctx context.Context, s *domain.Session, text, lang string) (TurnResult, error) {
	if lang != "" || s.Language == "" {
		s.Language = NormalizeLanguage(lang)
	}
	s.UpdatedAt = o.now()
	if s.Phase != domain.PhaseGathering && s.Phase != "" {
		next, err := s.Phase.Next(domain.EventUserMessage)
		if err != nil {
			return TurnResult{}, fmt.Errorf("service: %w", err)
		}
		s.Phase = next
	}
	s.Append(domain.RoleUser, text)
	if !s.NameKnown {
		s.NameKnown = o.opts.Names.Detect(text)
	}

	decision := o.opts.Policy.Decide(policy.Input{
		Coverage:         o.opts.Coverage.Score(s.History),
		UserTurns:        s.UserTurns(),
		ExplicitFinalize: policy.WantsFinalize(s.LastUserMessage()),
		NameKnown:        s.NameKnown,
	})
	finalize := decision == policy.Finalize
	if finalize {
		next, err := s.Phase.Next(domain.EventFinalizeRequested)
		if err != nil {
			return TurnResult{}, fmt.Errorf("service: %w", err)
		}
		s.Phase = next
	}

	prompt := BuildPrompt(s, PromptParams{
		Language: s.Language,
		Window:   o.opts.HistoryWindow,
		Finalize: finalize,
		SongsMin: o.opts.SongsMin,
		SongsMax: o.opts.SongsMax,
	})
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.ModelTimeout)
	reply, err := o.llm.Complete(callCtx, ports.CompletionRequest{
		Messages:    prompt,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	cancel()
	if err != nil {
		if finalize {
			s.Phase = domain.PhaseGathering
		}
		return TurnResult{}, fmt.Errorf("service: language model call failed: %w: %w", domain.ErrUpstreamModel, err)
	}

	s.Append(domain.RoleAssistant, reply)

	rec, ok := ParseRecommendation(reply, o.opts.SongsMax)
	if !ok {
		if err := o.advance(s, domain.EventConversationalReply); err != nil {
			return TurnResult{}, err
		}
		return o.result(s, true), nil
	}
	return o.handleRecommendation(ctx, s, rec)
}

func (o *Orchestrator) handleRecommendation(ctx context.Context, s *domain.Session, rec domain.Recommendation) (TurnResult, error) {
	book := phrases(s.Language)
	fresh := s.Offered.Admit(rec.Songs)
	if len(fresh) == 0 {
		if err := o.advance(s, domain.EventNothingNew); err != nil {
			return TurnResult{}, err
		}
		s.Append(domain.RoleAssistant, book.nothingNew)
		return o.result(s, true), nil
	}

	s.Mood = rec.Mood
	s.Rationale = rec.Rationale
	s.Pending = fresh

	if !s.Authenticated() {
		if err := o.advance(s, domain.EventSuggestionsOnly); err != nil {
			return TurnResult{}, err
		}
		s.Append(domain.RoleAssistant, book.connectAck(len(fresh)))
		res := o.result(s, false)
		res.Suggestions = domain.RawSuggestions(fresh)
		return res, nil
	}

	return o.build(ctx, s)
}

// BuildPendingPlaylist resolves the songs kept while the session had no
// catalog credential.
func (o *Orchestrator) BuildPendingPlaylist(ctx context.Context, sessionID string) (TurnResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return TurnResult{}, ErrMissingSession
	}
	var result TurnResult
	err := o.store.Mutate(ctx, sessionID, func(s *domain.Session) error {
		if len(s.Pending) == 0 {
			return domain.ErrNothingPending
		}
		if !s.Authenticated() {
			return domain.ErrNotAuthenticated
		}
		var err error
		result, err = o.build(ctx, s)
		return err
	})
	if err != nil {
		return TurnResult{}, err
	}
	return result, nil
}

// build resolves s.Pending into a playlist. It is called with the session locked.
func (o *Orchestrator) build(ctx context.Context, s *domain.Session) (TurnResult, error) {
	book := phrases(s.Language)
	rec := domain.Recommendation{Mood: s.Mood, Rationale: s.Rationale, Songs: append([]string(nil), s.Pending...)}

	res, err := o.resolver.Resolve(ctx, ResolveRequest{
		Credential:     *s.Credential,
		Identity:       s.Identity,
		Recommendation: rec,
		Songs:          rec.Songs,
		Language:       s.Language,
	})
	if res.Refreshed {
		cred := res.Credential
		s.Credential = &cred
	}
	if res.Identity.ID != "" {
		id := res.Identity
		s.Identity = &id
	}
	if err != nil {
		if errors.Is(err, domain.ErrCredentialRevoked) {
			s.Credential = nil
			s.Identity = nil
		}
		return TurnResult{}, fmt.Errorf("service: failed to build playlist: %w", err)
	}

	s.Pending = nil
	if !res.Built {
		if err := o.advance(s, domain.EventNoTracksResolved); err != nil {
			return TurnResult{}, err
		}
		s.Append(domain.RoleAssistant, book.noTracks)
		out := o.result(s, false)
		out.Unresolved = res.Unresolved
		return out, nil
	}

	if err := o.advance(s, domain.EventPlaylistBuilt); err != nil {
		return TurnResult{}, err
	}
	playlist := res.Playlist
	s.Playlist = &playlist
	s.Append(domain.RoleAssistant, book.builtAck(playlist.Name, len(playlist.Tracks), playlist.URL))
	o.record(s.ID, playlist, rec)

	out := o.result(s, false)
	out.Finalized = true
	out.Playlist = &playlist
	out.Suggestions = res.Suggestions
	out.Unresolved = res.Unresolved
	return out, nil
}

func (o *Orchestrator) record(sessionID string, p domain.Playlist, rec domain.Recommendation) {
	if o.recorder == nil {
		return
	}
	entry, err := domain.NewPlaylistRecord(sessionID, p, rec, o.now())
	if err != nil {
		return
	}
	o.recorder.Record(entry)
}

func (o *Orchestrator) advance(s *domain.Session, ev domain.Event) error {
	next, err := s.Phase.Next(ev)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	s.Phase = next
	return nil
}

func (o *Orchestrator) result(s *domain.Session, pending bool) TurnResult {
	return TurnResult{
		Messages:    s.VisibleHistory(),
		Pending:     pending,
		Suggestions: []domain.Suggestion{},
		Mood:        s.Mood,
		Phase:       s.Phase,
	}
}
