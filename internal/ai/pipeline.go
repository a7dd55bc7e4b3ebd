package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Generator is the language-generation capability boundary. Implementations
// own transport and timeouts; the pipeline owns prompt construction and
// response parsing, and performs no retries of its own.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// Sampling temperatures per stage. Deciding and restyling want consistency;
// drafting the reply itself wants variety.
const (
	decideTemperature  float32 = 0.7
	respondTemperature float32 = 1.0
	stylizeTemperature float32 = 0.7
)

const (
	decisionDelimiter  = "```"
	reasoningDelimiter = "***"
)

// DecisionOutcome is the structured result of the first pipeline stage.
type DecisionOutcome string

const (
	OutcomeRespond       DecisionOutcome = "RESPOND"
	OutcomePass          DecisionOutcome = "PASS"
	OutcomeInvalidFormat DecisionOutcome = InvalidFormat
)

// Decision carries the first stage's outcome and the model's stated
// reasoning. A malformed response yields InvalidFormat for both fields.
type Decision struct {
	Outcome   DecisionOutcome
	Reasoning string
}

// Pipeline runs the three-stage decide/respond/stylize chain for one persona
// invocation. Stages are strictly sequential within a call; independent
// invocations share no state and may run in parallel.
type Pipeline struct {
	generator Generator
	logger    *slog.Logger
}

// NewPipeline constructs a pipeline over the given generator.
func NewPipeline(generator Generator) *Pipeline {
	return NewPipelineWithLogger(generator, nil)
}

// NewPipelineWithLogger constructs a pipeline with a specified logger.
func NewPipelineWithLogger(generator Generator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{generator: generator, logger: logger}
}

// DecideToRespond asks whether the persona would speak right now. Malformed
// output is absorbed into an InvalidFormat decision, never an error;
// generator failures propagate.
func (p *Pipeline) DecideToRespond(ctx context.Context, persona *Persona, transcript string) (Decision, error) {
	tmpl, err := loadPrompt("decide_to_respond")
	if err != nil {
		return Decision{}, err
	}

	userPrompt := renderSections(tmpl, []promptSection{
		personaSection(persona),
		{label: "Transcript", body: transcript},
	})

	raw, err := p.generator.Complete(ctx, tmpl.System, userPrompt, decideTemperature)
	if err != nil {
		return Decision{}, fmt.Errorf("decide stage failed: %w", err)
	}

	decisionText, decisionOK := extractBetween(raw, decisionDelimiter)
	reasoning, reasoningOK := extractBetween(raw, reasoningDelimiter)
	if !decisionOK || !reasoningOK {
		p.logger.DebugContext(ctx, "decision response malformed", "code_name", persona.CodeName)
		return Decision{Outcome: OutcomeInvalidFormat, Reasoning: InvalidFormat}, nil
	}

	switch DecisionOutcome(strings.ToUpper(decisionText)) {
	case OutcomeRespond:
		return Decision{Outcome: OutcomeRespond, Reasoning: reasoning}, nil
	case OutcomePass:
		return Decision{Outcome: OutcomePass, Reasoning: reasoning}, nil
	default:
		return Decision{Outcome: OutcomeInvalidFormat, Reasoning: InvalidFormat}, nil
	}
}

// Respond drafts a neutral-voice reply from the decision reasoning and the
// transcript. A malformed response yields an empty string, not an error.
func (p *Pipeline) Respond(ctx context.Context, persona *Persona, reasoning, transcript string) (string, error) {
	tmpl, err := loadPrompt("respond")
	if err != nil {
		return "", err
	}

	userPrompt := renderSections(tmpl, []promptSection{
		personaSection(persona),
		{label: "Why you are replying", body: reasoning},
		{label: "Transcript", body: transcript},
	})

	raw, err := p.generator.Complete(ctx, tmpl.System, userPrompt, respondTemperature)
	if err != nil {
		return "", fmt.Errorf("respond stage failed: %w", err)
	}

	text, ok := extractBetween(raw, decisionDelimiter)
	if !ok {
		p.logger.DebugContext(ctx, "respond response malformed", "code_name", persona.CodeName)
		return "", nil
	}
	return text, nil
}

// Stylize rewrites the draft reply in the persona's own voice using the
// accumulated style samples. The rewritten text is returned as-is, trimmed.
func (p *Pipeline) Stylize(ctx context.Context, persona *Persona, draft string) (string, error) {
	tmpl, err := loadPrompt("stylize")
	if err != nil {
		return "", err
	}

	userPrompt := renderSections(tmpl, []promptSection{
		personaSection(persona),
		samplesSection(persona),
		{label: "Draft message", body: draft},
	})

	raw, err := p.generator.Complete(ctx, tmpl.System, userPrompt, stylizeTemperature)
	if err != nil {
		return "", fmt.Errorf("stylize stage failed: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// FullChainResponse runs decide, respond and stylize in order and returns the
// styled reply. It returns the empty string whenever the decision is not
// exactly RESPOND, which covers PASS and malformed output uniformly. This is
// the only entry point callers need.
func (p *Pipeline) FullChainResponse(ctx context.Context, persona *Persona, transcript string) (string, error) {
	decision, err := p.DecideToRespond(ctx, persona, transcript)
	if err != nil {
		return "", err
	}
	if decision.Outcome != OutcomeRespond {
		return "", nil
	}

	draft, err := p.Respond(ctx, persona, decision.Reasoning, transcript)
	if err != nil {
		return "", err
	}
	if draft == "" {
		return "", nil
	}

	styled, err := p.Stylize(ctx, persona, draft)
	if err != nil {
		return "", err
	}
	return styled, nil
}
