package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Recorder receives engine observations. The server wires a prometheus
// implementation; tests and tools use NopRecorder.
type Recorder interface {
	ObserveReplay(service string, cachedPrefix int, d time.Duration)
	// ObserveReply is called for every reply; firstProposal is set on the
	// turn that first completes the brief.
	ObserveReply(service string, r Reply, firstProposal bool)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) ObserveReplay(string, int, time.Duration) {}
func (NopRecorder) ObserveReply(string, Reply, bool)         {}

// Options configure an Engine.
type Options struct {
	Locale          string
	DefaultCurrency string
	// CacheSize is the number of replayed states kept for prefix reuse.
	// Zero disables memoization.
	CacheSize int
	Recorder  Recorder
	Logger    *slog.Logger
}

// Engine replays transcripts against the registry's service definitions.
// It is safe for concurrent use; requests for one conversation must still
// be serialized by the caller.
type Engine struct {
	registry *Registry
	settings Settings
	cache    *lru.Cache[string, *State]
	recorder Recorder
	logger   *slog.Logger
}

// NewEngine builds an engine over reg.
func NewEngine(reg *Registry, opts Options) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("nil registry")
	}
	e := &Engine{
		registry: reg,
		settings: Settings{Locale: opts.Locale, DefaultCurrency: opts.DefaultCurrency},
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	if e.recorder == nil {
		e.recorder = NopRecorder{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, *State](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("state cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Registry returns the engine's service registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Replay folds history into a fresh state for service. When a prefix of
// history was replayed before, folding resumes from a copy of that state.
func (e *Engine) Replay(service string, history []Message) (*State, error) {
	def, err := e.registry.Lookup(service)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	keys := e.prefixKeys(def.ID, history)
	s, from := e.cachedPrefix(keys)
	if s == nil {
		s = NewState(def, e.settings)
	}
	for _, m := range history[from:] {
		s.Observe(m)
	}
	if e.cache != nil && from < len(history) {
		e.cache.Add(keys[len(history)], s.Clone())
	}
	e.recorder.ObserveReplay(def.ID, from, time.Since(start))
	e.logger.Debug("transcript replayed", "service", def.ID, "messages", len(history), "cachedPrefix", from, "missingRequired", len(s.MissingRequired))
	return s, nil
}

// prefixKeys returns one chained digest per history prefix; keys[i] covers
// the first i messages.
func (e *Engine) prefixKeys(service string, history []Message) []string {
	if e.cache == nil {
		return nil
	}
	keys := make([]string, len(history)+1)
	h := sha256.Sum256([]byte(service + "\x00" + e.settings.Locale + "\x00" + e.settings.DefaultCurrency))
	keys[0] = hex.EncodeToString(h[:])
	for i, m := range history {
		h = sha256.Sum256([]byte(keys[i] + "\x00" + m.Role + "\x00" + m.Content))
		keys[i+1] = hex.EncodeToString(h[:])
	}
	return keys
}

// cachedPrefix finds the longest cached prefix and returns a copy of its
// state along with the number of messages it covers.
func (e *Engine) cachedPrefix(keys []string) (*State, int) {
	for i := len(keys) - 1; i > 0; i-- {
		if s, ok := e.cache.Get(keys[i]); ok {
			return s.Clone(), i
		}
	}
	return nil, 0
}

// Respond replays history and returns the next assistant reply with the
// state it was derived from.
func (e *Engine) Respond(service string, history []Message) (Reply, *State, error) {
	s, err := e.Replay(service, history)
	if err != nil {
		return Reply{}, nil, err
	}
	r := s.NextReply()
	e.recorder.ObserveReply(s.Service, r, r.Done && !proposedBefore(history))
	if r.LowBudget {
		e.logger.Debug("low budget gate", "service", s.Service, "minBudget", s.Meta.MinBudget)
	}
	return r, s, nil
}

// proposedBefore reports whether an earlier assistant turn carried a proposal.
func proposedBefore(history []Message) bool {
	for _, m := range history {
		if m.Role == RoleAssistant && ParseTags(m.Content).HasProposal {
			return true
		}
	}
	return false
}

// Opening returns the first assistant turn for service.
func (e *Engine) Opening(service string) (Reply, error) {
	def, err := e.registry.Lookup(service)
	if err != nil {
		return Reply{}, err
	}
	s := NewState(def, e.settings)
	r := s.NextReply()
	r.Text = fmt.Sprintf("Hi! I'll help you put together a brief for your %s project. It only takes a few questions.\n\n%s", def.Title, r.Text)
	return r, nil
}
