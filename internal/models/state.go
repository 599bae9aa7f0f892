// Package models defines state management structures for ChatForm conversations.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle stage of a conversation.
type Status string

const (
	// StatusWelcome means the conversation has been created but no field asked yet.
	StatusWelcome Status = "welcome"
	// StatusQuestions means the conversation is collecting field answers.
	StatusQuestions Status = "questions"
	// StatusSubmitting means all fields are processed and answers are being handed off.
	StatusSubmitting Status = "submitting"
	// StatusDone means the conversation has terminated.
	StatusDone Status = "done"
)

// AbandonedReason records why a conversation ended early.
type AbandonedReason string

const (
	// AbandonedMaxAttempts means a required field exhausted its attempt limit.
	AbandonedMaxAttempts AbandonedReason = "max_attempts"
	// AbandonedUserQuit means the respondent asked to end the conversation.
	AbandonedUserQuit AbandonedReason = "user_quit"
)

// ConversationState is the per-conversation mutable record owned by the
// flow controller. It is not concurrency-safe; the caller must serialize
// turns per conversation.
type ConversationState struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	// CurrentIndex is the position in the field sequence, or -1 when the
	// sequence is finished.
	CurrentIndex int `json:"current_index"`
	// Attempts counts failed tries per field key. Reset to 0 on advance or
	// skip, incremented on reprompt.
	Attempts map[string]int `json:"attempts"`
	// Answers maps field keys to finally-accepted normalized values.
	Answers         map[string]string `json:"answers"`
	Abandoned       bool              `json:"abandoned"`
	AbandonedReason AbandonedReason   `json:"abandoned_reason,omitempty"`
	LastActivityAt  time.Time         `json:"last_activity_at"`
}

// NewConversationState initializes state for a fresh conversation: first
// field, all counters zero.
func NewConversationState() *ConversationState {
	return &ConversationState{
		ID:             uuid.NewString(),
		Status:         StatusWelcome,
		CurrentIndex:   0,
		Attempts:       make(map[string]int),
		Answers:        make(map[string]string),
		LastActivityAt: time.Now(),
	}
}

// Finished reports whether the field sequence has terminated.
func (cs *ConversationState) Finished() bool {
	return cs.CurrentIndex < 0 || cs.Status == StatusDone
}

// AttemptCount returns the failed-try count for a field key (0 when unseen).
func (cs *ConversationState) AttemptCount(fieldKey string) int {
	if cs.Attempts == nil {
		return 0
	}
	return cs.Attempts[fieldKey]
}

// ToJSON serializes the conversation state to a JSON string.
func (cs *ConversationState) ToJSON() (string, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation state: %w", err)
	}
	return string(data), nil
}

// FromJSON deserializes conversation state from a JSON string.
func (cs *ConversationState) FromJSON(jsonStr string) error {
	if err := json.Unmarshal([]byte(jsonStr), cs); err != nil {
		return fmt.Errorf("failed to unmarshal conversation state: %w", err)
	}
	if cs.Attempts == nil {
		cs.Attempts = make(map[string]int)
	}
	if cs.Answers == nil {
		cs.Answers = make(map[string]string)
	}
	return nil
}
