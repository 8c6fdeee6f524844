package outreach

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kingrea/prospector/internal/faults"
	"github.com/kingrea/prospector/internal/lead"
	"github.com/kingrea/prospector/internal/llm"
	"github.com/kingrea/prospector/internal/stage"
)

const (
	stageID = "outreach"

	systemPrompt = "You write concise, personalised B2B outreach emails. " +
		"Reply with the message body only: no subject line, no markdown, no placeholders."

	retryNudge = "The previous draft broke the length limit. Rewrite it shorter and plainer."
)

// Stage drafts one outreach message per stakeholder.
type Stage struct{}

// New creates the message generation stage.
func New() *Stage {
	return &Stage{}
}

// Info implements stage.Stage.
func (s *Stage) Info() stage.Info {
	return stage.Info{
		ID:          stageID,
		Name:        "Message Generator",
		Description: "Drafts a personalised outreach message for each stakeholder.",
		Input:       "stakeholders",
		Output:      "messages",
	}
}

// Run drafts a message per stakeholder. A draft that fails validation gets
// one strict retry; if that also fails, the last non-empty draft is kept
// hard-truncated and flagged degraded rather than dropped. Only drafts with
// no usable text at all count as failures.
func (s *Stage) Run(ctx context.Context, env *stage.Context) (stage.Result, error) {
	if env.Writer == nil {
		return stage.Result{Status: stage.StatusFailed}, fmt.Errorf("outreach: writer client is not configured")
	}
	events, err := env.Artifacts.ReadEvents()
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	companies, err := env.Artifacts.ReadCompanies(events)
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	contacts, err := env.Artifacts.ReadStakeholders(companies)
	if err != nil {
		return stage.Result{Status: stage.StatusFailed}, err
	}
	if len(contacts) == 0 {
		return stage.Result{Status: stage.StatusFailed}, faults.Integrity("stakeholders", "no stakeholders to write to")
	}
	log := env.Log(stageID)
	limits := env.Config.Project.Limits

	byID := make(map[string]lead.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}

	outcomes := stage.FanOut(ctx, limits.MaxParallel, limits.CallTimeout(), contacts,
		func(callCtx context.Context, contact lead.Stakeholder) (lead.Message, error) {
			return s.draft(callCtx, env, byID[contact.CompanyID], contact, limits.MaxMessageChars)
		})

	var messages []lead.Message
	failed := 0
	degraded := 0
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			log.Warn("drafting failed for %s at %q: %v",
				contacts[i].Name, byID[contacts[i].CompanyID].Name, outcome.Err)
			continue
		}
		if outcome.Value.Degraded {
			degraded++
		}
		messages = append(messages, outcome.Value)
	}
	if failed == len(contacts) {
		return stage.Result{Status: stage.StatusFailed, Failed: failed},
			faults.Service("writer", "draft outreach", 0, fmt.Errorf("all %d drafts failed", failed))
	}

	if err := env.Artifacts.WriteMessages(messages); err != nil {
		return stage.Result{Status: stage.StatusFailed, Failed: failed}, err
	}

	status := stage.StatusSucceeded
	if failed > 0 {
		status = stage.StatusPartiallySucceeded
	}
	log.Info("drafted %d messages (%d degraded, %d failed)", len(messages), degraded, failed)
	return stage.Result{
		Status:    status,
		Processed: len(messages),
		Failed:    failed,
		Message:   fmt.Sprintf("%d messages drafted for %d stakeholders", len(messages), len(contacts)),
	}, nil
}

// draft produces one validated message, retrying once with a stricter prompt
// before degrading to a truncated copy of the best draft seen.
func (s *Stage) draft(ctx context.Context, env *stage.Context, company lead.Company, contact lead.Stakeholder, maxChars int) (lead.Message, error) {
	prompt := messagePrompt(company, contact)

	text, err := s.complete(ctx, env, prompt)
	if err != nil {
		return lead.Message{}, err
	}
	if ok := validate(text, maxChars); ok {
		return lead.Message{StakeholderID: contact.ID, Text: text, GeneratedAt: env.Now()}, nil
	}

	retry, retryErr := s.complete(ctx, env, prompt+"\n\n"+retryNudge)
	if retryErr == nil && validate(retry, maxChars) {
		return lead.Message{StakeholderID: contact.ID, Text: retry, GeneratedAt: env.Now()}, nil
	}
	if retryErr == nil && retry != "" {
		text = retry
	}
	if text == "" {
		return lead.Message{}, fmt.Errorf("outreach: empty draft for stakeholder %s", contact.ID)
	}
	if runes := []rune(text); len(runes) > maxChars {
		text = string(runes[:maxChars])
	}
	return lead.Message{StakeholderID: contact.ID, Text: text, Degraded: true, GeneratedAt: env.Now()}, nil
}

func (s *Stage) complete(ctx context.Context, env *stage.Context, prompt string) (string, error) {
	content, err := env.Writer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	return cleanup(content), nil
}

// validate enforces the character budget; counting runes keeps multibyte
// drafts on the same budget as ASCII ones.
func validate(text string, maxChars int) bool {
	return text != "" && utf8.RuneCountInString(text) <= maxChars
}

func messagePrompt(company lead.Company, contact lead.Stakeholder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short outreach email to %s, %s at %s.\n\n", contact.Name, contact.Title, company.Name)
	if company.Industry != "" {
		fmt.Fprintf(&b, "Their industry: %s.\n", company.Industry)
	}
	if company.Summary != "" {
		fmt.Fprintf(&b, "Company background: %s\n", company.Summary)
	}
	b.WriteString("\nOpen with something specific to their business, pitch one clear ")
	b.WriteString("reason to talk, and close with a low-pressure ask for a brief call.")
	return b.String()
}

// cleanup strips markdown fences, surrounding quotes, and subject lines that
// writer models add despite instructions.
func cleanup(content string) string {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if rest, ok := strings.CutPrefix(text, "Subject:"); ok {
		if _, body, found := strings.Cut(rest, "\n"); found {
			text = strings.TrimSpace(body)
		}
	}
	return text
}
