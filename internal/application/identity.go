package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Default assignment pools. Process-lifetime, consumed round-robin; wrapping
// around merely repeats a label and never violates correctness.
var (
	DefaultCodeNames = []string{"Falcon", "Nebula", "Quasar", "Echo", "Raven", "Orchid", "Zephyr", "Ember"}
	DefaultColors    = []string{"Crimson", "Sapphire", "Emerald", "Amber", "Violet", "Teal", "Indigo", "Silver"}
)

// Pool hands out values from a finite ordered sequence cyclically.
type Pool struct {
	mu     sync.Mutex
	values []string
	next   int
}

// NewPool constructs a pool over the given values.
func NewPool(values []string) *Pool {
	owned := make([]string, len(values))
	copy(owned, values)
	return &Pool{values: owned}
}

// Next returns the next value, wrapping modulo the pool length.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.values) == 0 {
		return ""
	}
	v := p.values[p.next%len(p.values)]
	p.next++
	return v
}

// ProfileService keeps the in-process registry of player profiles: real
// identity, assigned code name and color, and the writing samples the
// doppelganger needs. Profiles are not persisted; a game is one process
// lifetime.
type ProfileService struct {
	mu       sync.Mutex
	profiles map[string]*Profile

	codeNames   *Pool
	colors      *Pool
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// MinProfileStyleSamples is the number of writing samples required at
// profile creation.
const MinProfileStyleSamples = 3

// NewProfileService constructs a profile service using the default pools.
func NewProfileService(idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProfileService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ProfileService{
		profiles:    make(map[string]*Profile),
		codeNames:   NewPool(DefaultCodeNames),
		colors:      NewPool(DefaultColors),
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Register validates intake data, assigns a code name and color from the
// pools, and stores the profile.
func (s *ProfileService) Register(ctx context.Context, params RegisterProfileParams) (profile Profile, err error) {
	logger := serviceLogger(ctx, s.logger, "ProfileService", "Register")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register profile", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("profile_id", profile.ID, "code_name", profile.CodeName).InfoContext(ctx, "profile registered")
	}()

	vErr := validateProfileInput(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	samples := make([]string, 0, len(params.StyleSamples))
	for _, sample := range params.StyleSamples {
		if trimmed := strings.TrimSpace(sample); trimmed != "" {
			samples = append(samples, trimmed)
		}
	}

	profile = Profile{
		ID:           s.idGenerator(),
		FirstName:    strings.TrimSpace(params.FirstName),
		LastInitial:  strings.ToUpper(strings.TrimSpace(params.LastInitial)),
		CodeName:     s.codeNames.Next(),
		Color:        s.colors.Next(),
		StyleSamples: samples,
		CreatedAt:    s.now(),
	}

	s.mu.Lock()
	stored := profile
	s.profiles[profile.ID] = &stored
	s.mu.Unlock()
	return
}

// Get returns a copy of the profile with the given id.
func (s *ProfileService) Get(ctx context.Context, id string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}

	out := *stored
	out.StyleSamples = make([]string, len(stored.StyleSamples))
	copy(out.StyleSamples, stored.StyleSamples)
	return out, nil
}

// AddStyleSample appends another writing sample to an existing profile.
// Samples are append-only.
func (s *ProfileService) AddStyleSample(ctx context.Context, id, sample string) (Profile, error) {
	trimmed := strings.TrimSpace(sample)
	if trimmed == "" {
		vErr := &ValidationError{}
		vErr.add("sample", "sample is required")
		return Profile{}, vErr
	}

	s.mu.Lock()
	stored, ok := s.profiles[id]
	if !ok {
		s.mu.Unlock()
		return Profile{}, ErrNotFound
	}
	stored.StyleSamples = append(stored.StyleSamples, trimmed)
	s.mu.Unlock()

	return s.Get(ctx, id)
}

func validateProfileInput(params RegisterProfileParams) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(params.FirstName) == "" {
		vErr.add("first_name", "first name is required")
	}

	initial := []rune(strings.TrimSpace(params.LastInitial))
	if len(initial) != 1 || !unicode.IsLetter(initial[0]) {
		vErr.add("last_initial", "last initial must be a single letter")
	}

	filled := 0
	for _, sample := range params.StyleSamples {
		if strings.TrimSpace(sample) != "" {
			filled++
		}
	}
	if filled < MinProfileStyleSamples {
		vErr.add("style_samples", "at least 3 writing samples are required")
	}

	return vErr
}
