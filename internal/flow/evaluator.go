// Package flow provides the per-turn decision engine for ChatForm
// conversations: hybrid answer evaluation, the flow state machine, and
// reprompt message generation.
package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatform/ChatForm/internal/genai"
	"github.com/chatform/ChatForm/internal/models"
	"github.com/chatform/ChatForm/internal/tone"
	"github.com/chatform/ChatForm/internal/validate"
	"github.com/openai/openai-go"
)

// FallbackMinLength is the minimum answer length accepted by the
// deterministic fallback when the LLM judge is unavailable.
const FallbackMinLength = 3

// globalVagueAnswers are rejected for every free-text field, on top of
// any field-specific vague list.
var globalVagueAnswers = []string{
	"something",
	"stuff",
	"things",
	"anything",
	"everything",
	"nothing",
	"not sure",
	"maybe",
	"dunno",
	"you know",
	"the usual",
}

// EvalInput carries everything the evaluator needs for one answer: the
// field definition (intent, examples, vague list, options), the raw
// text the respondent typed, and the compiled tone contract used to
// phrase any clarification follow-up.
type EvalInput struct {
	Field   models.Field
	RawText string
	Tone    tone.Contract
}

// judgment is the strict JSON contract the LLM judge must return.
type judgment struct {
	Sufficient    bool    `json:"sufficient"`
	Reason        string  `json:"reason,omitempty"`
	Clarification *string `json:"clarification,omitempty"`
}

// Evaluator decides whether an answer is specific enough for its field.
// Deterministic checks run first; only free-text fields with a declared
// intent escalate to the LLM, and any model failure falls back
// deterministically so the conversation never stalls on infrastructure.
type Evaluator struct {
	genaiClient genai.ClientInterface
}

// NewEvaluator creates an evaluator. A nil client disables the LLM
// branch entirely; the deterministic fallback then covers intent fields.
func NewEvaluator(genaiClient genai.ClientInterface) *Evaluator {
	return &Evaluator{genaiClient: genaiClient}
}

// Evaluate runs the hybrid sufficiency check. It never returns an error:
// model failures are downgraded to the deterministic fallback.
func (e *Evaluator) Evaluate(ctx context.Context, input EvalInput) models.Result {
	field := input.Field
	text := strings.TrimSpace(input.RawText)

	if text == "" {
		return models.Rejected(models.ReasonEmpty)
	}
	if validate.IsRefusal(text) {
		return models.Rejected(models.ReasonRefusal)
	}
	if isVague(text, field.VagueAnswers) {
		return models.Rejected(models.ReasonVague)
	}

	// Typed fields resolve deterministically; the model is never consulted.
	if !field.Type.IsFreeText() {
		if field.Type.IsSelect() {
			if match, ok := validate.MatchOptionFuzzy(text, field.Options); ok {
				return models.Accepted(match)
			}
			return models.Rejected(models.ReasonInvalidFormat)
		}
		result, err := validate.Validate(field.Type, text, nil)
		if err != nil {
			// Unreachable with a validated field definition.
			slog.Error("Evaluator.Evaluate: validator rejected field type", "fieldKey", field.Key, "fieldType", field.Type, "error", err)
			return models.Rejected(models.ReasonInvalidFormat)
		}
		return result
	}

	// Free text: deterministic rejections still apply.
	if len([]rune(text)) < validate.MinFreeTextLength {
		return models.Rejected(models.ReasonTooShort)
	}
	if validate.IsNonsense(text) {
		return models.Rejected(models.ReasonNonsense)
	}

	// Without an intent there is nothing for a judge to measure against;
	// the same length rule the model fallback applies decides instead.
	if strings.TrimSpace(field.Intent) == "" {
		return fallbackResult(text)
	}

	return e.judgeWithModel(ctx, field, text, input.Tone)
}

// judgeWithModel asks the LLM whether the answer is specific enough for
// the field's intent. Every failure path falls through to the
// deterministic fallback; a broken model call must never surface to the
// respondent.
func (e *Evaluator) judgeWithModel(ctx context.Context, field models.Field, text string, contract tone.Contract) models.Result {
	if e.genaiClient == nil {
		slog.Debug("Evaluator.judgeWithModel: no GenAI client configured, using fallback", "fieldKey", field.Key)
		return fallbackResult(text)
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(judgeSystemPrompt),
		openai.UserMessage(buildJudgeUserPrompt(field, text)),
	}

	raw, err := e.genaiClient.GenerateStructuredJSON(ctx, messages)
	if err != nil {
		slog.Warn("Evaluator.judgeWithModel: model call failed, using fallback", "fieldKey", field.Key, "error", err)
		return fallbackResult(text)
	}

	var j judgment
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		slog.Warn("Evaluator.judgeWithModel: malformed judge response, using fallback", "fieldKey", field.Key, "error", err)
		return fallbackResult(text)
	}

	if j.Sufficient {
		return models.Accepted(text)
	}

	result := models.Rejected(coerceReason(j.Reason))
	if j.Clarification != nil && *j.Clarification != "" {
		slog.Debug("Evaluator.judgeWithModel: judge suggested clarification", "fieldKey", field.Key, "clarification", *j.Clarification)
		result.Clarification = e.styleClarification(ctx, contract, *j.Clarification)
	}
	return result
}

// styleClarification rephrases the judge's follow-up question to match
// the compiled tone contract. The sufficiency verdict is already fixed
// before this runs; a failed call keeps the judge's own wording.
func (e *Evaluator) styleClarification(ctx context.Context, contract tone.Contract, clarification string) string {
	guide := tone.BuildStyleGuide(contract)
	if guide == "" {
		return clarification
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(clarificationStylePrompt + guide),
		openai.UserMessage(clarification),
	}

	styled, err := e.genaiClient.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Warn("Evaluator.styleClarification: rephrase call failed, keeping original wording", "error", err)
		return clarification
	}
	if styled = strings.TrimSpace(styled); styled == "" {
		return clarification
	}
	return styled
}

const clarificationStylePrompt = `Rewrite the follow-up question below so its phrasing matches the rules. Keep the meaning unchanged. Respond with the rewritten question only.
`

// fallbackResult is the deterministic acceptance rule used when the
// model is unavailable: any answer of reasonable length passes rather
// than trapping the respondent behind an outage.
func fallbackResult(text string) models.Result {
	if len([]rune(text)) >= FallbackMinLength {
		return models.Accepted(text)
	}
	return models.Rejected(models.ReasonVague)
}

// coerceReason constrains the judge's free-form reason to the closed
// set the message generator understands.
func coerceReason(reason string) models.Reason {
	r := models.Reason(strings.ToLower(strings.TrimSpace(reason)))
	if r == models.ReasonOfftopic || r == models.ReasonVague {
		return r
	}
	return models.ReasonVague
}

func isVague(text string, fieldVague []string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range globalVagueAnswers {
		if lower == phrase {
			return true
		}
	}
	for _, phrase := range fieldVague {
		if lower == strings.ToLower(strings.TrimSpace(phrase)) {
			return true
		}
	}
	return false
}

const judgeSystemPrompt = `You judge whether a respondent's answer to a form question carries enough specific information.

You are given the question's label, its intent (what the answer is for), optional example answers, and the respondent's answer.

Judge ONLY specificity and relevance. Do not judge grammar, spelling, or politeness. Short answers are fine when they are specific.

Respond with strict JSON, nothing else:
{"sufficient": true|false, "reason": "vague"|"offtopic", "clarification": "one short follow-up question or null"}

Omit "reason" and set "clarification" to null when sufficient is true.`

// buildJudgeUserPrompt renders the field context and answer for the judge.
func buildJudgeUserPrompt(field models.Field, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", field.DisplayLabel())
	fmt.Fprintf(&b, "Intent: %s\n", field.Intent)
	if len(field.Examples) > 0 {
		fmt.Fprintf(&b, "Example acceptable answers: %s\n", strings.Join(field.Examples, "; "))
	}
	fmt.Fprintf(&b, "\nRespondent's answer: %s", text)
	return b.String()
}
