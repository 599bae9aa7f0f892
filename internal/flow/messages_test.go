package flow

import (
	"strings"
	"testing"

	"github.com/chatform/ChatForm/internal/models"
	"github.com/chatform/ChatForm/internal/tone"
)

func emailField(required bool) models.Field {
	return models.Field{Key: "email", Label: "Email address", Type: models.FieldTypeEmail, Required: required}
}

func TestSecondAttemptIncludesExample(t *testing.T) {
	msg := RepromptMessage(emailField(true), 2, models.ReasonInvalidFormat, tone.TierMedium)
	if !strings.Contains(msg, "name@example.com") {
		t.Errorf("second attempt must include a concrete example: %q", msg)
	}
}

func TestSecondAttemptPrefersAuthoredExample(t *testing.T) {
	field := models.Field{Key: "role", Label: "Role", Type: models.FieldTypeShortText, Required: true, Examples: []string{"barista at a coffee shop"}}
	msg := RepromptMessage(field, 2, models.ReasonVague, tone.TierMedium)
	if !strings.Contains(msg, "barista at a coffee shop") {
		t.Errorf("authored example must win over the generic one: %q", msg)
	}
}

func TestFinalAttemptOptionalOffersSkip(t *testing.T) {
	msg := RepromptMessage(emailField(false), 3, models.ReasonInvalidFormat, tone.TierMedium)
	if !strings.Contains(msg, SkipKeyword) {
		t.Errorf("final optional reprompt must offer the skip keyword: %q", msg)
	}
}

func TestFinalAttemptRequiredAnnouncesEnd(t *testing.T) {
	msg := RepromptMessage(emailField(true), 3, models.ReasonInvalidFormat, tone.TierMedium)
	if !strings.Contains(strings.ToLower(msg), "end") && !strings.Contains(strings.ToLower(msg), "stop") {
		t.Errorf("final required reprompt must state the conversation will end: %q", msg)
	}
	if strings.Contains(msg, SkipKeyword) {
		t.Errorf("required field must not be offered a skip: %q", msg)
	}
}

func TestFirstAttemptReasonSpecific(t *testing.T) {
	format := RepromptMessage(emailField(true), 1, models.ReasonInvalidFormat, tone.TierMedium)
	if !strings.Contains(format, "email") {
		t.Errorf("format nudge should name the expected format: %q", format)
	}

	refusal := RepromptMessage(emailField(true), 1, models.ReasonRefusal, tone.TierMedium)
	if refusal == format {
		t.Error("refusal and format nudges must differ")
	}

	vague := RepromptMessage(emailField(true), 1, models.ReasonVague, tone.TierMedium)
	if vague == format || vague == refusal {
		t.Error("vague nudge must differ from format and refusal nudges")
	}
}

func TestRefusalNudgeOnOptionalFieldMentionsSkip(t *testing.T) {
	msg := RepromptMessage(emailField(false), 1, models.ReasonRefusal, tone.TierMedium)
	if !strings.Contains(msg, SkipKeyword) {
		t.Errorf("optional refusal nudge should mention the skip keyword: %q", msg)
	}
}

func TestTierChangesRegisterNotContent(t *testing.T) {
	for _, attempt := range []int{1, 2, 3} {
		low := RepromptMessage(emailField(true), attempt, models.ReasonInvalidFormat, tone.TierLow)
		medium := RepromptMessage(emailField(true), attempt, models.ReasonInvalidFormat, tone.TierMedium)
		high := RepromptMessage(emailField(true), attempt, models.ReasonInvalidFormat, tone.TierHigh)

		if low == "" || medium == "" || high == "" {
			t.Fatalf("attempt %d: empty message", attempt)
		}
		if low == high {
			t.Errorf("attempt %d: expected register difference between low and high tiers", attempt)
		}
	}
}

func TestQuestionPromptSelectListsOptions(t *testing.T) {
	field := models.Field{
		Key:      "size",
		Label:    "T-shirt size",
		Type:     models.FieldTypeSelect,
		Required: true,
		Options:  []string{"Small", "Medium", "Large"},
	}
	msg := QuestionPrompt(field, tone.TierMedium)
	for _, opt := range field.Options {
		if !strings.Contains(msg, opt) {
			t.Errorf("option %q missing from prompt: %q", opt, msg)
		}
	}
	if !strings.Contains(msg, "1.") {
		t.Errorf("options should be numbered: %q", msg)
	}
}

func TestQuestionPromptOptionalMentionsSkip(t *testing.T) {
	field := models.Field{Key: "website", Label: "Website", Type: models.FieldTypeURL, Required: false}
	msg := QuestionPrompt(field, tone.TierLow)
	if !strings.Contains(msg, SkipKeyword) {
		t.Errorf("optional question should mention the skip keyword: %q", msg)
	}
}

func TestClosingMessages(t *testing.T) {
	if QuitMessage(tone.TierLow) == "" || CompletionMessage(tone.TierHigh) == "" {
		t.Error("closing messages must not be empty")
	}
	if WelcomeMessage("", tone.TierMedium) == "" {
		t.Error("welcome must handle an untitled form")
	}
}
