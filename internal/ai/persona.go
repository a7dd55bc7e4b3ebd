// Package ai implements the doppelganger decision pipeline: a persona built
// from a human player's own writing, and a three-stage chain that decides
// whether the persona speaks, drafts a reply, and restyles it to match the
// human's voice.
package ai

import (
	"errors"
	"fmt"
	"sync"
)

// MinStyleSamples is the number of human-authored writing samples a persona
// needs before it can be impersonated convincingly.
const MinStyleSamples = 3

// ErrInsufficientStyleSamples is returned when a persona is constructed with
// fewer writing samples than MinStyleSamples.
var ErrInsufficientStyleSamples = errors.New("ai: persona requires more style samples")

// Persona is the identity an AI participant impersonates. Its named fields
// are fixed at construction; only the style-sample collection may grow.
type Persona struct {
	FirstName   string
	LastInitial string
	CodeName    string
	Color       string

	mu      sync.Mutex
	samples []string
}

// NewPersona builds a persona from the player's intake data and writing
// samples. At least MinStyleSamples samples are required.
func NewPersona(firstName, lastInitial, codeName, color string, samples []string) (*Persona, error) {
	if len(samples) < MinStyleSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStyleSamples, len(samples), MinStyleSamples)
	}

	p := &Persona{
		FirstName:   firstName,
		LastInitial: lastInitial,
		CodeName:    codeName,
		Color:       color,
		samples:     make([]string, len(samples)),
	}
	copy(p.samples, samples)
	return p, nil
}

// AddStyleSample appends another writing sample. Samples are append-only;
// existing ones are never altered or removed.
func (p *Persona) AddStyleSample(sample string) {
	if sample == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples = append(p.samples, sample)
}

// StyleSamples returns a copy of the accumulated writing samples.
func (p *Persona) StyleSamples() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.samples))
	copy(out, p.samples)
	return out
}

// DisplayName renders the human identity the persona stands in for,
// e.g. "Alex K.".
func (p *Persona) DisplayName() string {
	return fmt.Sprintf("%s %s.", p.FirstName, p.LastInitial)
}
