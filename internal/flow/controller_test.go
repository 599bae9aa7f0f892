package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/chatform/ChatForm/internal/models"
	"github.com/chatform/ChatForm/internal/tone"
)

func testFields() []models.Field {
	return []models.Field{
		{Key: "name", Label: "Full name", Type: models.FieldTypeShortText, Required: true},
		{Key: "email", Label: "Email address", Type: models.FieldTypeEmail, Required: true},
		{Key: "website", Label: "Website", Type: models.FieldTypeURL, Required: false},
	}
}

func newTestController() *Controller {
	return NewController(NewEvaluator(nil))
}

// runTurn processes one turn and applies the decision, mirroring how a
// caller drives the controller.
func runTurn(t *testing.T, c *Controller, text string, field models.Field, state *models.ConversationState, fields []models.Field) (models.FlowDecision, *models.ConversationState) {
	t.Helper()
	decision := c.ProcessUserResponse(context.Background(), text, field, state, fields, tone.Config{})
	next := UpdateConversationState(state, decision, field.Key, decision.NormalizedValue)
	return decision, next
}

func TestRequiredFieldMaxAttemptsEndsConversation(t *testing.T) {
	c := newTestController()
	fields := testFields()
	state := models.NewConversationState()
	state.CurrentIndex = 1 // email field
	email := fields[1]

	var actions []models.Action
	for i := 0; i < 3; i++ {
		var decision models.FlowDecision
		decision, state = runTurn(t, c, "not an email", email, state, fields)
		actions = append(actions, decision.Action)
		if i == 2 {
			if decision.AbandonedReason != models.AbandonedMaxAttempts {
				t.Errorf("expected max_attempts abandon reason, got %q", decision.AbandonedReason)
			}
		}
	}

	want := []models.Action{models.ActionReprompt, models.ActionReprompt, models.ActionEnd}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("turn %d: action = %q, want %q (all: %v)", i+1, actions[i], want[i], actions)
		}
	}

	if !state.Abandoned || state.AbandonedReason != models.AbandonedMaxAttempts {
		t.Errorf("state not marked abandoned for max attempts: %+v", state)
	}
	if state.Status != models.StatusDone || state.CurrentIndex != -1 {
		t.Errorf("expected terminated state, got status=%q index=%d", state.Status, state.CurrentIndex)
	}
}

func TestOptionalFieldMaxAttemptsOffersSkipInsteadOfEnding(t *testing.T) {
	c := newTestController()
	fields := testFields()
	state := models.NewConversationState()
	state.CurrentIndex = 2 // optional website field
	website := fields[2]

	var last models.FlowDecision
	for i := 0; i < 3; i++ {
		last, state = runTurn(t, c, "not a url", website, state, fields)
	}

	if last.Action != models.ActionReprompt {
		t.Fatalf("optional field must never end on max attempts, got %q", last.Action)
	}
	if !last.OfferSkip {
		t.Error("final reprompt for optional field must offer skip")
	}
	if !strings.Contains(last.Message, SkipKeyword) {
		t.Errorf("final reprompt must mention the skip keyword: %q", last.Message)
	}
	if state.Abandoned {
		t.Error("optional field exhaustion must not abandon the conversation")
	}
}

func TestSkipOnOptionalFieldAdvancesWithoutValue(t *testing.T) {
	c := newTestController()
	fields := testFields()
	state := models.NewConversationState()
	state.CurrentIndex = 2
	website := fields[2]

	decision, next := runTurn(t, c, "skip", website, state, fields)

	if decision.Action != models.ActionSkip {
		t.Fatalf("expected skip, got %q", decision.Action)
	}
	if _, stored := next.Answers["website"]; stored {
		t.Error("skip must not store a value")
	}
	if next.AttemptCount("website") != 0 {
		t.Errorf("skip must reset the attempt counter, got %d", next.AttemptCount("website"))
	}
	if next.CurrentIndex != 3 {
		t.Errorf("skip must advance the field index, got %d", next.CurrentIndex)
	}
}

func TestSkipOnRequiredFieldReprompts(t *testing.T) {
	c := newTestController()
	fields := testFields()
	state := models.NewConversationState()
	name := fields[0]

	decision, next := runTurn(t, c, "skip", name, state, fields)

	if decision.Action != models.ActionReprompt {
		t.Fatalf("skip on required field must reprompt, never silently advance: got %q", decision.Action)
	}
	if decision.Reason != models.ReasonRefusal {
		t.Errorf("expected refusal-styled reprompt, got reason %q", decision.Reason)
	}
	if next.CurrentIndex != 0 {
		t.Errorf("field index must not advance, got %d", next.CurrentIndex)
	}
	if next.AttemptCount("name") != 1 {
		t.Errorf("expected standard attempt increment, got %d", next.AttemptCount("name"))
	}
}

func TestEndKeywordsTerminateImmediately(t *testing.T) {
	for _, keyword := range []string{"quit", "stop", "end", "cancel", "nevermind", "i'm done", "QUIT"} {
		c := newTestController()
		fields := testFields()
		state := models.NewConversationState()

		decision, next := runTurn(t, c, keyword, fields[0], state, fields)

		if decision.Action != models.ActionEnd {
			t.Errorf("%q: expected end, got %q", keyword, decision.Action)
			continue
		}
		if decision.AbandonedReason != models.AbandonedUserQuit {
			t.Errorf("%q: expected user_quit, got %q", keyword, decision.AbandonedReason)
		}
		if !next.Abandoned || next.AbandonedReason != models.AbandonedUserQuit {
			t.Errorf("%q: state not marked user_quit: %+v", keyword, next)
		}
	}
}

func TestAcceptedAnswerAdvances(t *testing.T) {
	c := newTestController()
	fields := testFields()
	state := models.NewConversationState()
	state.Attempts["name"] = 2 // prior failures must reset on success

	decision, next := runTurn(t, c, "Dana Whitfield", fields[0], state, fields)

	if decision.Action != models.ActionAdvance {
		t.Fatalf("expected advance, got %q", decision.Action)
	}
	if next.Answers["name"] != "Dana Whitfield" {
		t.Errorf("expected stored normalized value, got %q", next.Answers["name"])
	}
	if next.AttemptCount("name") != 0 {
		t.Errorf("advance must reset the attempt counter, got %d", next.AttemptCount("name"))
	}
	if next.CurrentIndex != 1 {
		t.Errorf("advance must increment the field index, got %d", next.CurrentIndex)
	}
	if next.Status != models.StatusQuestions {
		t.Errorf("expected questions status, got %q", next.Status)
	}
}

func TestLastFieldCompletes(t *testing.T) {
	c := newTestController()
	fields := testFields()
	state := models.NewConversationState()
	state.CurrentIndex = 2

	decision, next := runTurn(t, c, "https://example.com", fields[2], state, fields)

	if decision.Action != models.ActionComplete {
		t.Fatalf("expected complete on last field, got %q", decision.Action)
	}
	if next.Status != models.StatusSubmitting || next.CurrentIndex != -1 {
		t.Errorf("expected submitting/-1, got %q/%d", next.Status, next.CurrentIndex)
	}
	if next.Answers["website"] != "https://example.com" {
		t.Errorf("expected stored answer, got %q", next.Answers["website"])
	}

	done := MarkSubmitted(next)
	if done.Status != models.StatusDone {
		t.Errorf("expected done after submission, got %q", done.Status)
	}
}

func TestRepromptCarriesStyledClarification(t *testing.T) {
	mock := &mockGenAIClient{
		response:     `{"sufficient": false, "reason": "vague", "clarification": "What do you do day to day?"}`,
		chatResponse: "So, what does a typical day look like for you?",
	}
	c := NewController(NewEvaluator(mock))
	fields := []models.Field{intentField()}
	state := models.NewConversationState()

	decision := c.ProcessUserResponse(context.Background(), "business things", fields[0], state, fields, tone.Config{Preset: tone.PresetPlayful})

	if decision.Action != models.ActionReprompt {
		t.Fatalf("expected reprompt, got %q", decision.Action)
	}
	if !strings.Contains(decision.Message, "So, what does a typical day look like for you?") {
		t.Errorf("reprompt must carry the styled clarification: %q", decision.Message)
	}
	ladder := RepromptMessage(fields[0], 1, models.ReasonVague, tone.TierHigh)
	if !strings.HasPrefix(decision.Message, ladder) {
		t.Errorf("ladder message must still lead the reprompt: %q", decision.Message)
	}
}

func TestUpdateConversationStateIsPure(t *testing.T) {
	state := models.NewConversationState()
	state.Attempts["name"] = 1
	state.Answers["prior"] = "kept"

	decision := models.FlowDecision{Action: models.ActionAdvance, NormalizedValue: "value"}
	next := UpdateConversationState(state, decision, "name", "value")

	if state.AttemptCount("name") != 1 || state.CurrentIndex != 0 {
		t.Errorf("input state was mutated: %+v", state)
	}
	if next.Answers["prior"] != "kept" {
		t.Error("existing answers must carry over")
	}
	if next == state {
		t.Error("expected a new state value")
	}
}

func TestToneNeverChangesDecisions(t *testing.T) {
	configs := []tone.Config{
		{},
		{Preset: tone.PresetProfessional},
		{Preset: tone.PresetPlayful},
		{Preset: tone.PresetDirect},
		{Preset: tone.PresetEmpathetic},
	}
	high := 1.0
	configs = append(configs, tone.Config{Preset: tone.PresetDirect, Chattiness: &high})

	inputs := []string{"not an email", "skip", "quit", "person@example.com"}

	for _, text := range inputs {
		var baseline models.Action
		for i, cfg := range configs {
			c := newTestController()
			fields := testFields()
			state := models.NewConversationState()
			state.CurrentIndex = 1

			decision := c.ProcessUserResponse(context.Background(), text, fields[1], state, fields, cfg)
			if i == 0 {
				baseline = decision.Action
				continue
			}
			if decision.Action != baseline {
				t.Errorf("tone changed decision for %q: %q vs %q (config %+v)", text, decision.Action, baseline, cfg)
			}
		}
	}
}

func TestSkipAndEndPhraseMatching(t *testing.T) {
	for _, text := range []string{"skip", "Skip it", "SKIP THIS", "pass", "next"} {
		if !IsSkipRequest(text) {
			t.Errorf("expected skip request for %q", text)
		}
	}
	for _, text := range []string{"skipping rope", "passport", "the next one"} {
		if IsSkipRequest(text) {
			t.Errorf("unexpected skip request for %q", text)
		}
	}
	for _, text := range []string{"end", "exit", "I'm done"} {
		if !IsEndRequest(text) {
			t.Errorf("expected end request for %q", text)
		}
	}
	if IsEndRequest("the end of the street") {
		t.Error("end phrases must match exactly, not by substring")
	}
}
