package crew

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultStages returns the canonical three-stage pipeline:
// writer -> reviewer (sees the draft) -> compliance (sees draft and review).
func DefaultStages() []StageSpec {
	return []StageSpec{
		{
			Role: RoleWriter,
			Goal: "To write an engaging, informative, and human-like blog post on a given topic.",
			Backstory: "You are an expert content creator who specializes in technology and culture. " +
				"You know how to break down complex topics into simple, engaging narratives that captivate an audience.",
			Description: "Write a 300-word blog post about the topic: '{{topic}}'. " +
				"The post must be engaging and easy to understand.",
			ExpectedOutput: "A formatted blog post (text) of around 300 words.",
		},
		{
			Role: RoleReviewer,
			Goal: "To review a given piece of content and ensure it strictly adheres to brand guidelines.",
			Backstory: "You are the guardian of the brand's voice. Your job is to read content and check it " +
				"for tone, style, and accuracy against the company's brand profile. " +
				"You are meticulous and have a keen eye for detail.",
			Description: "Review the blog post written by the Creative Content Writer. " +
				"Check it against the following Brand Guidelines: '{{guidelines}}'. " +
				"Provide a detailed review with either 'APPROVED' or 'REJECTED' status and clear feedback.",
			ExpectedOutput: "A comprehensive review with 'APPROVED' or 'REJECTED' status and clear revision notes.",
			DependsOn:      []Role{RoleWriter},
		},
		{
			Role: RoleCompliance,
			Goal: "Perform a final legal/ethical/copyright check with a decisive verdict.",
			Backstory: "You are a detail-oriented compliance expert. Scan text for legal, ethical, " +
				"and copyright risks and give a final GO / NO-GO.",
			Description: "Perform a final legal and ethical compliance check on the blog post. " +
				"Scan the text for any sensitive topics, potential misinformation, " +
				"or copyright red flags. Provide a final 'GO' or 'NO-GO' with a brief justification.",
			ExpectedOutput: "A final 'GO' or 'NO-GO' verdict with a 1-sentence explanation.",
			DependsOn:      []Role{RoleWriter, RoleReviewer},
		},
	}
}

// ReviewStages returns the reduced two-stage variant without the
// compliance check.
func ReviewStages() []StageSpec {
	return DefaultStages()[:2]
}

// StagesForVariant maps a config variant name to a stage list.
// Unknown names fall back to the full pipeline.
func StagesForVariant(variant string) []StageSpec {
	if variant == "review" {
		return ReviewStages()
	}
	return DefaultStages()
}

// ValidateStages checks that every DependsOn entry references a role
// produced by an earlier stage and that no role appears twice. The stage
// list is always linear, so this is the only ordering check needed.
func ValidateStages(stages []StageSpec) error {
	if len(stages) == 0 {
		return fmt.Errorf("stage list is empty")
	}
	produced := make(map[Role]bool, len(stages))
	for i, spec := range stages {
		if produced[spec.Role] {
			return fmt.Errorf("stage %d: duplicate role %q", i, spec.Role)
		}
		for _, dep := range spec.DependsOn {
			if !produced[dep] {
				return fmt.Errorf("stage %d (%s): depends on %q which is not produced by an earlier stage", i, spec.Role, dep)
			}
		}
		produced[spec.Role] = true
	}
	return nil
}

var templatePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// resolveTemplate substitutes {{name}} placeholders from vars, leaving
// unknown placeholders untouched.
func resolveTemplate(template string, vars map[string]string) string {
	return templatePattern.ReplaceAllStringFunc(template, func(match string) string {
		key := templatePattern.FindStringSubmatch(match)[1]
		if v, ok := vars[key]; ok {
			return v
		}
		return match
	})
}

// BuildPrompt composes the user prompt for one stage: the stage's task
// description with topic/guidelines substituted, followed by the verbatim
// output of every dependency in dependency order, each section prefixed by
// the producing role's label.
func BuildPrompt(spec StageSpec, req Request, prior []StageResult) (string, error) {
	byRole := make(map[Role]StageResult, len(prior))
	for _, res := range prior {
		byRole[res.Role] = res
	}

	var b strings.Builder
	b.WriteString(resolveTemplate(spec.Description, map[string]string{
		"topic":      req.Topic,
		"guidelines": req.Guidelines,
	}))

	for _, dep := range spec.DependsOn {
		res, ok := byRole[dep]
		if !ok {
			return "", fmt.Errorf("stage %s: missing output from dependency %q", spec.Role, dep)
		}
		b.WriteString("\n\n")
		b.WriteString(dep.Label())
		b.WriteString(":\n")
		b.WriteString(res.RawText)
	}

	return b.String(), nil
}

// SystemPrompt composes the system message for a stage from its goal and
// backstory, mirroring how the agents are described to the model.
func SystemPrompt(spec StageSpec) string {
	return fmt.Sprintf("You are the %s. %s Your goal: %s", spec.Role.Label(), spec.Backstory, spec.Goal)
}
