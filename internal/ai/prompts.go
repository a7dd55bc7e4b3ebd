package ai

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var promptFiles embed.FS

type promptTemplate struct {
	System       string `yaml:"system"`
	Instructions string `yaml:"instructions"`
}

func loadPrompt(name string) (promptTemplate, error) {
	raw, err := promptFiles.ReadFile("prompts/" + name + ".yaml")
	if err != nil {
		return promptTemplate{}, fmt.Errorf("failed to read prompt %q: %w", name, err)
	}

	var tmpl promptTemplate
	if err := yaml.Unmarshal(raw, &tmpl); err != nil {
		return promptTemplate{}, fmt.Errorf("failed to parse prompt %q: %w", name, err)
	}
	if strings.TrimSpace(tmpl.System) == "" || strings.TrimSpace(tmpl.Instructions) == "" {
		return promptTemplate{}, fmt.Errorf("prompt %q is missing system or instructions", name)
	}
	return tmpl, nil
}

// renderSections appends labelled blocks to the instruction text in a fixed
// order so prompts stay reproducible across invocations.
func renderSections(tmpl promptTemplate, sections []promptSection) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(tmpl.Instructions))
	for _, section := range sections {
		b.WriteString("\n\n")
		b.WriteString(section.label)
		b.WriteString(":\n")
		b.WriteString(strings.TrimSpace(section.body))
	}
	return b.String()
}

type promptSection struct {
	label string
	body  string
}

func personaSection(p *Persona) promptSection {
	return promptSection{
		label: "You are impersonating",
		body:  fmt.Sprintf("%s, code name %s", p.DisplayName(), p.CodeName),
	}
}

func samplesSection(p *Persona) promptSection {
	samples := p.StyleSamples()
	var b strings.Builder
	for i, sample := range samples {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(sample)
	}
	return promptSection{label: "Their real messages", body: b.String()}
}
