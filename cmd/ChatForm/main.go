// ChatForm is an interactive terminal driver for the conversational form
// engine: it loads a form definition, walks the respondent through each
// field on stdin/stdout, and prints the collected answers as JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chatform/ChatForm/internal/flow"
	"github.com/chatform/ChatForm/internal/form"
	"github.com/chatform/ChatForm/internal/genai"
	"github.com/chatform/ChatForm/internal/models"
	"github.com/chatform/ChatForm/internal/tone"
	"github.com/chatform/ChatForm/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultFormPath is the form definition loaded when none is specified.
	DefaultFormPath = "form.yaml"
	// DefaultTurnTimeout bounds a single turn, including the LLM call.
	DefaultTurnTimeout = 15 * time.Second
)

// Config holds environment configuration
type Config struct {
	FormPath  string
	OpenAIKey string
	Debug     bool
}

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	formPath := parseCommandLineFlags(config)

	def, err := form.Load(formPath)
	if err != nil {
		slog.Error("Failed to load form definition", "path", formPath, "error", err)
		os.Exit(1)
	}

	evaluator := flow.NewEvaluator(buildGenAIClient(config))
	controller := flow.NewController(evaluator)

	slog.Info("Starting conversation", "form", def.Title, "fields", len(def.Fields))
	state := runConversation(controller, def)

	if state.Status == models.StatusSubmitting {
		printAnswers(state)
		state = flow.MarkSubmitted(state)
	}
	slog.Info("Conversation finished", "conversationID", state.ID, "status", state.Status, "abandoned", state.Abandoned, "reason", state.AbandonedReason)
}

// initializeLogger sets up structured logging with an env-selected level.
func initializeLogger() {
	level := util.ParseLogLevelEnv("CHATFORM_LOG_LEVEL", slog.LevelWarn)
	if util.ParseBoolEnv("CHATFORM_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	return Config{
		FormPath:  util.GetEnvOrDefault("CHATFORM_FORM", DefaultFormPath),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		Debug:     util.ParseBoolEnv("CHATFORM_DEBUG", false),
	}
}

// parseCommandLineFlags resolves the form path, with flags overriding env.
func parseCommandLineFlags(config Config) string {
	formPath := flag.String("form", config.FormPath, "path to the form definition file (YAML or JSON)")
	flag.Parse()
	return *formPath
}

// buildGenAIClient creates the LLM client, or returns nil when no API key
// is configured. The evaluator falls back deterministically without one.
func buildGenAIClient(config Config) genai.ClientInterface {
	if config.OpenAIKey == "" {
		slog.Warn("OPENAI_API_KEY not set; sufficiency checks run in deterministic fallback mode")
		return nil
	}
	client, err := genai.NewClient()
	if err != nil {
		slog.Warn("Failed to initialize GenAI client; using deterministic fallback", "error", err)
		return nil
	}
	return client
}

// runConversation drives the turn loop until the form completes or ends.
func runConversation(controller *flow.Controller, def *form.Definition) *models.ConversationState {
	contract := tone.Compile(def.Tone)
	state := models.NewConversationState()
	scanner := bufio.NewScanner(os.Stdin)

	say(flow.WelcomeMessage(def.Title, contract.Tier))

	for !state.Finished() {
		field := def.Fields[state.CurrentIndex]
		say(flow.QuestionPrompt(field, contract.Tier))

		for {
			line, ok := readLine(scanner)
			if !ok {
				// EOF on stdin is treated as the respondent quitting.
				decision := models.FlowDecision{
					Action:          models.ActionEnd,
					Message:         flow.QuitMessage(contract.Tier),
					AbandonedReason: models.AbandonedUserQuit,
				}
				state = flow.UpdateConversationState(state, decision, field.Key, "")
				say(decision.Message)
				return state
			}

			ctx, cancel := context.WithTimeout(context.Background(), DefaultTurnTimeout)
			decision := controller.ProcessUserResponse(ctx, line, field, state, def.Fields, def.Tone)
			cancel()

			state = flow.UpdateConversationState(state, decision, field.Key, decision.NormalizedValue)
			say(decision.Message)

			if decision.Action != models.ActionReprompt {
				break
			}
		}
	}

	return state
}

// printAnswers renders the collected answers as indented JSON on stdout.
func printAnswers(state *models.ConversationState) {
	data, err := json.MarshalIndent(state.Answers, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal answers", "error", err)
		return
	}
	fmt.Printf("\n--- collected answers ---\n%s\n", data)
}

func say(message string) {
	fmt.Printf("\n%s\n", message)
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	fmt.Print("> ")
	if !scanner.Scan() {
		return "", false
	}
	return scanner.Text(), true
}
