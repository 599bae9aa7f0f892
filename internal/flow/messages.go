package flow

import (
	"fmt"
	"strings"

	"github.com/chatform/ChatForm/internal/models"
	"github.com/chatform/ChatForm/internal/tone"
)

// Message generation: the escalation ladder is fixed by attempt number
// and rejection reason; the tone tier only adjusts phrasing register.
// Changing tone must never change whether a turn advances, reprompts,
// or ends.

// SkipKeyword is the phrase reprompts offer when a field may be skipped.
const SkipKeyword = "skip"

// RepromptMessage builds the text shown when an answer was rejected.
// attempt is the new (post-increment) attempt number for the field.
func RepromptMessage(field models.Field, attempt int, reason models.Reason, tier tone.Tier) string {
	switch {
	case attempt <= 1:
		return firstNudge(field, reason, tier)
	case attempt == 2:
		return directiveWithExample(field, tier)
	default:
		return finalWarning(field, tier)
	}
}

// firstNudge is the gentle, reason-specific first reprompt.
func firstNudge(field models.Field, reason models.Reason, tier tone.Tier) string {
	label := strings.ToLower(field.DisplayLabel())

	switch reason {
	case models.ReasonEmpty:
		return flavored(tier,
			fmt.Sprintf("Please enter your %s.", label),
			fmt.Sprintf("I didn't catch anything there. Could you type your %s?", label),
			fmt.Sprintf("Oops, looks like that came through empty! What's your %s?", label))
	case models.ReasonRefusal:
		if field.Required {
			return flavored(tier,
				fmt.Sprintf("This one is required: %s.", label),
				fmt.Sprintf("I do need your %s to continue, if that's alright.", label),
				fmt.Sprintf("Totally get it, but I do need your %s to keep going!", label))
		}
		return flavored(tier,
			fmt.Sprintf("If you'd rather not answer, reply %q. Otherwise, your %s?", SkipKeyword, label),
			fmt.Sprintf("No pressure; you can reply %q to move on, or share your %s.", SkipKeyword, label),
			fmt.Sprintf("No worries! Reply %q to move on, or tell me your %s.", SkipKeyword, label))
	case models.ReasonInvalidFormat:
		return flavored(tier,
			fmt.Sprintf("That doesn't look like %s. %s", formatNoun(field.Type), formatHint(field.Type)),
			fmt.Sprintf("Hmm, that doesn't look like %s. %s", formatNoun(field.Type), formatHint(field.Type)),
			fmt.Sprintf("Hmm, that doesn't quite look like %s! %s", formatNoun(field.Type), formatHint(field.Type)))
	case models.ReasonOfftopic:
		return flavored(tier,
			fmt.Sprintf("That seems unrelated. The question is about your %s.", label),
			fmt.Sprintf("I think we drifted a bit. I'm asking about your %s.", label),
			fmt.Sprintf("Ha, we wandered off track! Back to your %s?", label))
	default:
		// vague, too_short, nonsense: ask for more detail.
		return flavored(tier,
			fmt.Sprintf("Could you be more specific about your %s?", label),
			fmt.Sprintf("Could you tell me a bit more? I need something specific for your %s.", label),
			fmt.Sprintf("Give me a little more to work with. What's your %s, specifically?", label))
	}
}

// directiveWithExample is the second reprompt: more directive, with a
// concrete example value for the field type.
func directiveWithExample(field models.Field, tier tone.Tier) string {
	example := exampleValue(field)
	label := strings.ToLower(field.DisplayLabel())

	return flavored(tier,
		fmt.Sprintf("Please provide your %s. For example: %s", label, example),
		fmt.Sprintf("Let's try once more: your %s, something like: %s", label, example),
		fmt.Sprintf("Let's give it another go! Your %s, for example: %s", label, example))
}

// finalWarning is the third reprompt: offer the skip keyword for
// optional fields, or state plainly that the conversation will end for
// required ones.
func finalWarning(field models.Field, tier tone.Tier) string {
	label := strings.ToLower(field.DisplayLabel())

	if !field.Required {
		return flavored(tier,
			fmt.Sprintf("You can reply %q to move past this question, or give your %s one more try.", SkipKeyword, label),
			fmt.Sprintf("This one is optional; reply %q to move on, or give your %s one more try.", SkipKeyword, label),
			fmt.Sprintf("No stress! Reply %q and we'll move right along, or take one more shot at your %s.", SkipKeyword, label))
	}

	return flavored(tier,
		fmt.Sprintf("I can't continue without your %s. This was the last try; without it the conversation will end.", label),
		fmt.Sprintf("I'm sorry, but I can't continue without your %s. Since we couldn't get there, I'll have to end the conversation here.", label),
		fmt.Sprintf("I really wish we could keep going, but I can't continue without your %s, so this is where we have to stop.", label))
}

// attachClarification appends the judge's tone-styled follow-up question
// to a reprompt. The ladder message always comes first so the escalation
// stage stays visible.
func attachClarification(message, clarification string) string {
	if clarification == "" {
		return message
	}
	return message + " " + clarification
}

// AcknowledgmentMessage confirms an accepted answer.
func AcknowledgmentMessage(tier tone.Tier) string {
	return flavored(tier, "Got it.", "Got it, thanks!", "Perfect, thanks for that!")
}

// SkipConfirmationMessage confirms an optional field was skipped.
func SkipConfirmationMessage(field models.Field, tier tone.Tier) string {
	label := strings.ToLower(field.DisplayLabel())
	return flavored(tier,
		fmt.Sprintf("Skipping %s.", label),
		fmt.Sprintf("No problem, skipping %s.", label),
		fmt.Sprintf("No worries at all, skipping %s!", label))
}

// QuitMessage closes the conversation when the respondent asks to end it.
func QuitMessage(tier tone.Tier) string {
	return flavored(tier,
		"Understood. Ending here. Your answers so far have been noted.",
		"No problem, we'll stop here. Thanks for the answers you shared!",
		"All good, we'll wrap it up here. Thanks so much for your time!")
}

// CompletionMessage closes the conversation after the last field.
func CompletionMessage(tier tone.Tier) string {
	return flavored(tier,
		"That's everything. Thank you.",
		"That's everything I needed. Thank you for your time!",
		"And that's a wrap! Thanks a ton, this was great!")
}

// WelcomeMessage opens the conversation.
func WelcomeMessage(title string, tier tone.Tier) string {
	if title == "" {
		title = "a few questions"
	}
	return flavored(tier,
		fmt.Sprintf("This is %s. Let's begin.", title),
		fmt.Sprintf("Hi! I'll walk you through %s. It only takes a minute.", title),
		fmt.Sprintf("Hey there! I'll walk you through %s. This'll be quick and painless, promise!", title))
}

// QuestionPrompt renders the question for a field, listing options for
// select types.
func QuestionPrompt(field models.Field, tier tone.Tier) string {
	label := field.DisplayLabel()

	var b strings.Builder
	if field.Type.IsSelect() {
		b.WriteString(flavored(tier,
			fmt.Sprintf("%s. Choose one of:", label),
			fmt.Sprintf("%s? Here are the options:", label),
			fmt.Sprintf("%s? Pick whichever fits best:", label)))
		for i, opt := range field.Options {
			fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
		}
		if field.Type == models.FieldTypeMultiSelect {
			b.WriteString("\n(You can pick more than one, separated by commas.)")
		}
	} else {
		b.WriteString(flavored(tier,
			fmt.Sprintf("%s?", label),
			fmt.Sprintf("What's your %s?", strings.ToLower(label)),
			fmt.Sprintf("Alright, what's your %s?", strings.ToLower(label))))
	}

	if !field.Required {
		b.WriteString(flavored(tier,
			fmt.Sprintf(" (Optional: reply %q to pass.)", SkipKeyword),
			fmt.Sprintf(" This one's optional, so feel free to reply %q.", SkipKeyword),
			fmt.Sprintf(" Totally optional, by the way: %q works too!", SkipKeyword)))
	}

	return b.String()
}

// formatNoun names the expected value for invalid-format nudges.
func formatNoun(ft models.FieldType) string {
	switch ft {
	case models.FieldTypeEmail:
		return "an email address"
	case models.FieldTypePhone:
		return "a phone number"
	case models.FieldTypeDate:
		return "a date"
	case models.FieldTypeURL:
		return "a web address"
	case models.FieldTypeNumber:
		return "a number"
	case models.FieldTypeSelect, models.FieldTypeMultiSelect:
		return "one of the listed options"
	default:
		return "an answer I can use"
	}
}

// formatHint gives a short format instruction for invalid-format nudges.
func formatHint(ft models.FieldType) string {
	switch ft {
	case models.FieldTypeEmail:
		return "It should look like name@example.com."
	case models.FieldTypePhone:
		return "A number with at least 7 digits works."
	case models.FieldTypeDate:
		return "A date like 2024-06-01 works."
	case models.FieldTypeURL:
		return "It should start with http:// or https://."
	case models.FieldTypeNumber:
		return "Digits only, like 42."
	case models.FieldTypeSelect, models.FieldTypeMultiSelect:
		return "Please answer with one of the listed options."
	default:
		return "A couple of specific words is all I need."
	}
}

// exampleValue returns a concrete example appropriate to the field type.
func exampleValue(field models.Field) string {
	if len(field.Examples) > 0 {
		return field.Examples[0]
	}
	switch field.Type {
	case models.FieldTypeEmail:
		return "name@example.com"
	case models.FieldTypePhone:
		return "+1 416 555 0199"
	case models.FieldTypeDate:
		return "2024-06-01"
	case models.FieldTypeURL:
		return "https://example.com"
	case models.FieldTypeNumber:
		return "42"
	case models.FieldTypeSelect, models.FieldTypeMultiSelect:
		if len(field.Options) > 0 {
			return field.Options[0]
		}
		return "one of the listed options"
	default:
		return "a specific answer with a little detail"
	}
}

// flavored selects the register for the tier: terse for low, neutral for
// medium, chatty for high. The three variants must always carry the same
// semantic content.
func flavored(tier tone.Tier, low, medium, high string) string {
	switch tier {
	case tone.TierLow:
		return low
	case tone.TierHigh:
		return high
	default:
		return medium
	}
}
