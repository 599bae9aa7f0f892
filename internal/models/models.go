// Package models defines the core data structures for ChatForm.
//
// It includes field definitions, per-turn validation results, and flow
// decisions, which are shared across modules.
package models

import (
	"errors"
	"fmt"
)

// FieldType defines how a field's answer is validated.
type FieldType string

const (
	// FieldTypeShortText collects a short free-text answer.
	FieldTypeShortText FieldType = "short_text"
	// FieldTypeLongText collects a longer free-text answer.
	FieldTypeLongText FieldType = "long_text"
	// FieldTypeEmail collects an email address.
	FieldTypeEmail FieldType = "email"
	// FieldTypePhone collects a phone number.
	FieldTypePhone FieldType = "phone"
	// FieldTypeNumber collects a numeric value.
	FieldTypeNumber FieldType = "number"
	// FieldTypeDate collects a calendar date or timestamp.
	FieldTypeDate FieldType = "date"
	// FieldTypeURL collects a web address.
	FieldTypeURL FieldType = "url"
	// FieldTypeSelect collects one choice from a fixed option set.
	FieldTypeSelect FieldType = "select"
	// FieldTypeMultiSelect collects one or more choices from a fixed option set.
	FieldTypeMultiSelect FieldType = "multi_select"
)

// Validation constants for field definitions.
const (
	// MaxFieldKeyLength defines the maximum allowed length for a field key.
	MaxFieldKeyLength = 100
	// MaxOptionsCount defines the maximum number of select options allowed.
	MaxOptionsCount = 50
)

// Error variables for better error handling and testability
var (
	ErrEmptyFieldKey     = errors.New("field key cannot be empty")
	ErrFieldKeyTooLong   = errors.New("field key exceeds maximum length")
	ErrInvalidFieldType  = errors.New("invalid field type")
	ErrMissingOptions    = errors.New("options are required for select fields")
	ErrTooManyOptions    = errors.New("too many select options")
	ErrEmptyOption       = errors.New("select option cannot be empty")
	ErrDuplicateFieldKey = errors.New("duplicate field key")
	ErrUnknownFieldType  = errors.New("unknown field type")
	ErrNoFields          = errors.New("form must declare at least one field")
)

// IsValidFieldType checks if the given field type is supported.
func IsValidFieldType(ft FieldType) bool {
	switch ft {
	case FieldTypeShortText, FieldTypeLongText, FieldTypeEmail, FieldTypePhone,
		FieldTypeNumber, FieldTypeDate, FieldTypeURL, FieldTypeSelect, FieldTypeMultiSelect:
		return true
	default:
		return false
	}
}

// IsFreeText reports whether the field type accepts open-ended text.
func (ft FieldType) IsFreeText() bool {
	return ft == FieldTypeShortText || ft == FieldTypeLongText
}

// IsSelect reports whether the field type matches against a fixed option set.
func (ft FieldType) IsSelect() bool {
	return ft == FieldTypeSelect || ft == FieldTypeMultiSelect
}

// Field is the immutable per-question definition: what to collect and how
// strictly. Created once when a form is authored; never mutated during a
// conversation.
type Field struct {
	Key      string    `json:"key" yaml:"key"`
	Label    string    `json:"label" yaml:"label"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required" yaml:"required"`
	// Intent describes what the field is for. It is consumed only by the
	// sufficiency evaluator when judging open-ended answers.
	Intent string `json:"intent,omitempty" yaml:"intent,omitempty"`
	// Examples lists acceptable answers, shown to the LLM judge.
	Examples []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	// VagueAnswers lists field-specific phrases to reject outright.
	VagueAnswers []string `json:"vague_answers,omitempty" yaml:"vague_answers,omitempty"`
	// Options is the allowed value set for select and multi-select fields.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate performs comprehensive validation on a Field definition.
func (f *Field) Validate() error {
	if f.Key == "" {
		return ErrEmptyFieldKey
	}
	if len(f.Key) > MaxFieldKeyLength {
		return ErrFieldKeyTooLong
	}
	if !IsValidFieldType(f.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidFieldType, f.Type)
	}
	if f.Type.IsSelect() {
		if len(f.Options) == 0 {
			return ErrMissingOptions
		}
		if len(f.Options) > MaxOptionsCount {
			return ErrTooManyOptions
		}
		for _, opt := range f.Options {
			if opt == "" {
				return ErrEmptyOption
			}
		}
	}
	return nil
}

// DisplayLabel returns the label, falling back to the key when no label was authored.
func (f *Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

// Reason classifies why an answer was rejected. A Result carries exactly
// one reason when rejected and none when accepted.
type Reason string

const (
	// ReasonEmpty means the trimmed answer was empty.
	ReasonEmpty Reason = "empty"
	// ReasonRefusal means the answer matched the refusal blocklist.
	ReasonRefusal Reason = "refusal"
	// ReasonNonsense means the answer was low-information filler.
	ReasonNonsense Reason = "nonsense"
	// ReasonTooShort means the answer was below the minimum length.
	ReasonTooShort Reason = "too_short"
	// ReasonInvalidFormat means the answer failed the field's format rules.
	ReasonInvalidFormat Reason = "invalid_format"
	// ReasonVague means the answer carried no specific information.
	ReasonVague Reason = "vague"
	// ReasonOfftopic means the answer did not address the field's intent.
	ReasonOfftopic Reason = "offtopic"
)

// IsValidReason checks if the given rejection reason is one of the closed set.
func IsValidReason(r Reason) bool {
	switch r {
	case ReasonEmpty, ReasonRefusal, ReasonNonsense, ReasonTooShort,
		ReasonInvalidFormat, ReasonVague, ReasonOfftopic:
		return true
	default:
		return false
	}
}

// Result is the ephemeral outcome of validating or evaluating a single
// answer. It is never persisted.
type Result struct {
	OK              bool   `json:"ok"`
	NormalizedValue string `json:"normalized_value,omitempty"`
	Reason          Reason `json:"reason,omitempty"`
	// Clarification is an optional follow-up question suggested by the
	// sufficiency judge, already phrased for the configured tone. Only set
	// on rejections.
	Clarification string `json:"clarification,omitempty"`
}

// Accepted builds a passing result carrying the normalized value.
func Accepted(normalized string) Result {
	return Result{OK: true, NormalizedValue: normalized}
}

// Rejected builds a failing result carrying exactly one reason.
func Rejected(reason Reason) Result {
	return Result{OK: false, Reason: reason}
}

// Action is the per-turn decision produced by the flow controller.
type Action string

const (
	// ActionAdvance accepts the answer and moves to the next field.
	ActionAdvance Action = "advance"
	// ActionReprompt re-asks the current field with escalated guidance.
	ActionReprompt Action = "reprompt"
	// ActionSkip advances past an optional field without storing a value.
	ActionSkip Action = "skip"
	// ActionEnd terminates the conversation before all fields are collected.
	ActionEnd Action = "end"
	// ActionComplete accepts the final answer and finishes the form.
	ActionComplete Action = "complete"
)

// FlowDecision is the controller's verdict for one respondent turn: what
// to do next and what to say.
type FlowDecision struct {
	Action          Action `json:"action"`
	Message         string `json:"message"`
	Reason          Reason `json:"reason,omitempty"`
	NormalizedValue string `json:"normalized_value,omitempty"`
	// OfferSkip is set when the message explicitly invites the skip keyword.
	OfferSkip bool `json:"offer_skip,omitempty"`
	// AbandonedReason accompanies ActionEnd and records why the
	// conversation terminated early.
	AbandonedReason AbandonedReason `json:"abandoned_reason,omitempty"`
}

// IsTerminal reports whether the decision ends the field sequence.
func (d FlowDecision) IsTerminal() bool {
	return d.Action == ActionEnd || d.Action == ActionComplete
}
