package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chatform/ChatForm/internal/models"
	"github.com/chatform/ChatForm/internal/tone"
)

// skipPhrases are the exact answers that request skipping the current field.
var skipPhrases = []string{"skip", "skip it", "skip this", "pass", "next"}

// endPhrases are the exact answers that terminate the conversation.
var endPhrases = []string{"end", "quit", "exit", "stop", "cancel", "nevermind", "i'm done"}

// IsSkipRequest reports whether text is an exact skip phrase.
func IsSkipRequest(text string) bool {
	return matchesPhrase(text, skipPhrases)
}

// IsEndRequest reports whether text is an exact end phrase.
func IsEndRequest(text string) bool {
	return matchesPhrase(text, endPhrases)
}

func matchesPhrase(text string, phrases []string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, p := range phrases {
		if lower == p {
			return true
		}
	}
	return false
}

// attemptLimitFor returns the per-field attempt limit. Both required and
// optional fields share the constant limit of 3 today; the parameter is
// kept because call sites read on requiredness and the limits may yet
// diverge.
func attemptLimitFor(required bool) int {
	return 3
}

// Controller is the per-turn state machine. Given the respondent's text,
// the current field, and the running conversation state, it produces a
// FlowDecision. It never mutates state; apply decisions with
// UpdateConversationState.
type Controller struct {
	evaluator *Evaluator
}

// NewController creates a flow controller around a sufficiency evaluator.
func NewController(evaluator *Evaluator) *Controller {
	return &Controller{evaluator: evaluator}
}

// ProcessUserResponse computes the decision for one respondent turn.
// Decisions are deterministic given (field, text, attempt count, tone);
// the tone configuration selects phrasing only.
func (c *Controller) ProcessUserResponse(ctx context.Context, text string, field models.Field, state *models.ConversationState, allFields []models.Field, toneCfg tone.Config) models.FlowDecision {
	contract := tone.Compile(toneCfg)
	tier := contract.Tier
	isLast := state.CurrentIndex >= len(allFields)-1

	slog.Debug("Controller.ProcessUserResponse: processing turn",
		"conversationID", state.ID, "fieldKey", field.Key, "attempts", state.AttemptCount(field.Key), "isLast", isLast)

	if IsEndRequest(text) {
		// End requests win regardless of requiredness or attempt count.
		slog.Info("Controller.ProcessUserResponse: respondent requested end", "conversationID", state.ID, "fieldKey", field.Key)
		return models.FlowDecision{
			Action:          models.ActionEnd,
			Message:         QuitMessage(tier),
			AbandonedReason: models.AbandonedUserQuit,
		}
	}

	if IsSkipRequest(text) {
		if !field.Required {
			slog.Debug("Controller.ProcessUserResponse: skipping optional field", "conversationID", state.ID, "fieldKey", field.Key)
			return models.FlowDecision{
				Action:  models.ActionSkip,
				Message: SkipConfirmationMessage(field, tier),
			}
		}
		// Skipping a required field reprompts with refusal phrasing and
		// consumes the standard attempt increment.
		return c.escalate(state, field, models.Rejected(models.ReasonRefusal), tier)
	}

	result := c.evaluator.Evaluate(ctx, EvalInput{Field: field, RawText: text, Tone: contract})
	if result.OK {
		action := models.ActionAdvance
		message := AcknowledgmentMessage(tier)
		if isLast {
			action = models.ActionComplete
			message = CompletionMessage(tier)
		}
		slog.Debug("Controller.ProcessUserResponse: answer accepted", "conversationID", state.ID, "fieldKey", field.Key, "action", action)
		return models.FlowDecision{
			Action:          action,
			Message:         message,
			NormalizedValue: result.NormalizedValue,
		}
	}

	return c.escalate(state, field, result, tier)
}

// escalate handles an insufficient answer: reprompt with the escalation
// ladder, or terminate a required field that has exhausted its attempts.
// The latter is the anti-stuck guarantee: a respondent is never trapped
// in an infinite retry loop.
func (c *Controller) escalate(state *models.ConversationState, field models.Field, result models.Result, tier tone.Tier) models.FlowDecision {
	reason := result.Reason
	newCount := state.AttemptCount(field.Key) + 1
	limit := attemptLimitFor(field.Required)

	slog.Debug("Controller.escalate: answer insufficient",
		"conversationID", state.ID, "fieldKey", field.Key, "reason", reason, "attempt", newCount, "limit", limit)

	if newCount >= limit {
		if !field.Required {
			return models.FlowDecision{
				Action:    models.ActionReprompt,
				Message:   RepromptMessage(field, newCount, reason, tier),
				Reason:    reason,
				OfferSkip: true,
			}
		}
		slog.Info("Controller.escalate: required field exhausted attempts, ending conversation",
			"conversationID", state.ID, "fieldKey", field.Key, "attempts", newCount)
		return models.FlowDecision{
			Action:          models.ActionEnd,
			Message:         RepromptMessage(field, newCount, reason, tier),
			Reason:          reason,
			AbandonedReason: models.AbandonedMaxAttempts,
		}
	}

	return models.FlowDecision{
		Action:  models.ActionReprompt,
		Message: attachClarification(RepromptMessage(field, newCount, reason, tier), result.Clarification),
		Reason:  reason,
	}
}

// UpdateConversationState applies a decision to the conversation state
// and returns the updated copy. It is a pure transition function: the
// input state is not modified, and no partial writes occur.
func UpdateConversationState(state *models.ConversationState, decision models.FlowDecision, fieldKey string, normalizedValue string) *models.ConversationState {
	next := cloneState(state)
	next.LastActivityAt = time.Now()
	if next.Status == models.StatusWelcome {
		next.Status = models.StatusQuestions
	}

	switch decision.Action {
	case models.ActionAdvance:
		next.Answers[fieldKey] = normalizedValue
		next.Attempts[fieldKey] = 0
		next.CurrentIndex++
	case models.ActionSkip:
		next.Attempts[fieldKey] = 0
		next.CurrentIndex++
	case models.ActionReprompt:
		next.Attempts[fieldKey]++
	case models.ActionComplete:
		next.Answers[fieldKey] = normalizedValue
		next.Attempts[fieldKey] = 0
		next.CurrentIndex = -1
		next.Status = models.StatusSubmitting
	case models.ActionEnd:
		next.CurrentIndex = -1
		next.Status = models.StatusDone
		next.Abandoned = true
		next.AbandonedReason = decision.AbandonedReason
	}

	return next
}

// MarkSubmitted finishes a conversation whose answers the caller has
// handed off: submitting becomes done.
func MarkSubmitted(state *models.ConversationState) *models.ConversationState {
	next := cloneState(state)
	next.Status = models.StatusDone
	next.LastActivityAt = time.Now()
	return next
}

func cloneState(state *models.ConversationState) *models.ConversationState {
	next := *state
	next.Attempts = make(map[string]int, len(state.Attempts))
	for k, v := range state.Attempts {
		next.Attempts[k] = v
	}
	next.Answers = make(map[string]string, len(state.Answers))
	for k, v := range state.Answers {
		next.Answers[k] = v
	}
	return &next
}
