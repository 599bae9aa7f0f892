// Package validate provides pure, synchronous acceptance or rejection of
// a respondent's answer against a field's declared type, plus detection
// of refusals and low-information text. It performs no I/O and consults
// no model; the hybrid evaluation lives in the flow package.
package validate

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/chatform/ChatForm/internal/models"
)

// MinFreeTextLength is the minimum trimmed length for a free-text answer.
const MinFreeTextLength = 2

// MinPhoneDigits is the minimum digit count for a phone answer.
const MinPhoneDigits = 7

// refusalPhrases is the fixed, case-insensitive blocklist checked before
// any type-specific logic. Short entries match exactly; longer entries
// also match by containment.
var refusalPhrases = []string{
	"n/a",
	"nope",
	"idk",
	"i don't know",
	"i dont know",
	"dont know",
	"whatever",
	"decline",
	"rather not",
	"prefer not to",
	"no comment",
	"not your business",
	"none of your business",
	"mind your own business",
	"not telling",
	"won't say",
	"wont say",
}

// containmentMinLength gates which blocklist entries may match by
// substring. Short tokens like "no" only match the whole answer.
const containmentMinLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dateLayouts are tried in order when parsing a date answer.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Options carries the field-specific inputs the validator needs beyond
// the raw text: the allowed value set for select fields.
type Options struct {
	AllowedValues []string
}

// Validate checks rawText against the field type's format rules and
// returns a Result. The only error path is an unknown field type, which
// is a programming error and unreachable given a well-formed field.
func Validate(fieldType models.FieldType, rawText string, opts *Options) (models.Result, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return models.Rejected(models.ReasonEmpty), nil
	}

	// Refusal detection takes priority over format validation.
	if IsRefusal(text) {
		return models.Rejected(models.ReasonRefusal), nil
	}

	switch fieldType {
	case models.FieldTypeEmail:
		return validateEmail(text), nil
	case models.FieldTypePhone:
		return validatePhone(text), nil
	case models.FieldTypeDate:
		return validateDate(text), nil
	case models.FieldTypeURL:
		return validateURL(text), nil
	case models.FieldTypeNumber:
		return validateNumber(text), nil
	case models.FieldTypeSelect:
		return validateSelect(text, allowed(opts)), nil
	case models.FieldTypeMultiSelect:
		return validateMultiSelect(text, allowed(opts)), nil
	case models.FieldTypeShortText, models.FieldTypeLongText:
		return validateFreeText(text), nil
	default:
		return models.Result{}, fmt.Errorf("%w: %q", models.ErrUnknownFieldType, fieldType)
	}
}

// IsRefusal reports whether the trimmed text matches the refusal blocklist.
func IsRefusal(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range refusalPhrases {
		if lower == phrase {
			return true
		}
		if len(phrase) >= containmentMinLength && strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsNonsense reports whether text is low-information filler: one character
// repeated across the whole string, a vowel-free fragment, or mostly
// punctuation.
func IsNonsense(text string) bool {
	runes := []rune(text)
	if len(runes) == 0 {
		return true
	}

	if len(runes) >= 2 && singleRuneRepeated(runes) {
		return true
	}

	if len(runes) <= 4 && !containsVowel(text) {
		return true
	}

	return punctuationRatio(runes) > 0.5
}

func validateEmail(text string) models.Result {
	if !emailPattern.MatchString(text) {
		return models.Rejected(models.ReasonInvalidFormat)
	}
	return models.Accepted(strings.ToLower(text))
}

func validatePhone(text string) models.Result {
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < MinPhoneDigits {
		return models.Rejected(models.ReasonInvalidFormat)
	}
	// Value kept as typed; downstream systems own phone canonicalization.
	return models.Accepted(text)
}

func validateDate(text string) models.Result {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return models.Accepted(t.UTC().Format(time.RFC3339))
		}
	}
	return models.Rejected(models.ReasonInvalidFormat)
}

func validateURL(text string) models.Result {
	u, err := url.Parse(text)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Rejected(models.ReasonInvalidFormat)
	}
	return models.Accepted(text)
}

func validateNumber(text string) models.Result {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return models.Rejected(models.ReasonInvalidFormat)
	}
	// ParseFloat accepts "Inf" and "NaN" spellings; a form answer never means those.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.Rejected(models.ReasonInvalidFormat)
	}
	return models.Accepted(strconv.FormatFloat(v, 'f', -1, 64))
}

func validateSelect(text string, options []string) models.Result {
	if match, ok := matchOption(text, options); ok {
		return models.Accepted(match)
	}
	return models.Rejected(models.ReasonInvalidFormat)
}

func validateMultiSelect(text string, options []string) models.Result {
	parts := strings.Split(text, ",")
	var matched []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		match, ok := matchOption(part, options)
		if !ok {
			return models.Rejected(models.ReasonInvalidFormat)
		}
		matched = append(matched, match)
	}
	if len(matched) == 0 {
		return models.Rejected(models.ReasonInvalidFormat)
	}
	return models.Accepted(strings.Join(matched, ", "))
}

func validateFreeText(text string) models.Result {
	if len([]rune(text)) < MinFreeTextLength {
		return models.Rejected(models.ReasonTooShort)
	}
	if IsNonsense(text) {
		return models.Rejected(models.ReasonNonsense)
	}
	return models.Accepted(text)
}

// matchOption finds a case-insensitive exact match and returns the
// canonical option spelling.
func matchOption(text string, options []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, opt := range options {
		if strings.ToLower(opt) == lower {
			return opt, true
		}
	}
	return "", false
}

// MatchOptionFuzzy extends matchOption with substring containment in
// either direction. Used by the richer evaluator variant, not by the
// strict validator.
func MatchOptionFuzzy(text string, options []string) (string, bool) {
	if match, ok := matchOption(text, options); ok {
		return match, true
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "", false
	}
	for _, opt := range options {
		optLower := strings.ToLower(opt)
		if strings.Contains(optLower, lower) || strings.Contains(lower, optLower) {
			return opt, true
		}
	}
	return "", false
}

func allowed(opts *Options) []string {
	if opts == nil {
		return nil
	}
	return opts.AllowedValues
}

func singleRuneRepeated(runes []rune) bool {
	first := runes[0]
	for _, r := range runes[1:] {
		if r != first {
			return false
		}
	}
	return true
}

func containsVowel(text string) bool {
	return strings.ContainsAny(strings.ToLower(text), "aeiou")
}

func punctuationRatio(runes []rune) float64 {
	punct := 0
	for _, r := range runes {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			punct++
		}
	}
	return float64(punct) / float64(len(runes))
}
