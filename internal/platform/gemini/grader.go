package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/lingua-engine/internal/config"
	"github.com/phrazzld/lingua-engine/internal/grading"
)

// Package-level errors for grader construction and response handling.
var (
	// ErrInvalidConfig indicates the grader cannot be built from the
	// provided configuration.
	ErrInvalidConfig = errors.New("invalid gemini grader configuration")

	// ErrContentBlocked indicates the model refused the prompt on safety
	// grounds.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrInvalidResponse indicates the model's reply could not be parsed
	// into a verdict.
	ErrInvalidResponse = errors.New("invalid response from gemini")
)

// healthCooldown is how long the grader reports unhealthy after a
// transport failure. Keeps a dead service from costing a full timeout
// on every attempt while still re-probing eventually.
const healthCooldown = 30 * time.Second

// promptTemplateText asks for a strict JSON verdict so parsing stays
// trivial. The model sees the learner's attempt and the canonical
// target and judges meaning equivalence, not surface form.
const promptTemplateText = `You are grading a language learner's translation attempt.
Target text: {{.Target}}
Learner's attempt: {{.Attempt}}

Judge whether the attempt conveys the same meaning as the target,
tolerating minor spelling, article, and word-order differences.
Respond with ONLY a JSON object, no prose and no markdown fences:
{"correct": true|false, "feedback": "one short sentence for the learner"}`

type promptData struct {
	Target  string
	Attempt string
}

// verdictSchema is the JSON shape the model is instructed to return.
type verdictSchema struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// Grader implements grading.SemanticGrader on top of the Gemini API.
type Grader struct {
	logger         *slog.Logger
	client         *genai.Client
	model          string
	promptTemplate *template.Template

	// mu guards lastFailure, the only state Grade and Healthy share.
	mu          sync.Mutex
	lastFailure time.Time
}

var _ grading.SemanticGrader = (*Grader)(nil)

// NewGrader creates a Gemini-backed semantic grader from the grading
// configuration section.
func NewGrader(ctx context.Context, logger *slog.Logger, cfg config.GradingConfig) (*Grader, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	promptTemplate, err := template.New("verdict").Parse(promptTemplateText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v", ErrInvalidConfig, err)
	}

	return &Grader{
		logger:         logger.With(slog.String("component", "gemini_grader")),
		client:         client,
		model:          cfg.ModelName,
		promptTemplate: promptTemplate,
	}, nil
}

// Healthy reports whether the service is worth consulting. It is a
// local check: the grader goes unhealthy for a cooldown window after a
// transport failure instead of probing the network on every attempt.
func (g *Grader) Healthy(_ context.Context) bool {
	if g.client == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Since(g.lastFailure) >= healthCooldown
}

// Grade asks the model to judge the attempt against the target and
// parses the JSON verdict. Transport errors trip the health cooldown;
// malformed responses do not, since the service itself is reachable.
func (g *Grader) Grade(ctx context.Context, attempt, target string) (*grading.Verdict, error) {
	prompt, err := g.buildPrompt(attempt, target)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		g.recordFailure()
		g.logger.WarnContext(ctx, "gemini call failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("gemini call failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "semantic verdict received",
		slog.Bool("correct", verdict.Correct))
	return verdict, nil
}

func (g *Grader) buildPrompt(attempt, target string) (string, error) {
	if attempt == "" || target == "" {
		return "", fmt.Errorf("%w: attempt and target are required", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{Target: target, Attempt: attempt}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

func (g *Grader) recordFailure() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFailure = time.Now()
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty candidate content", ErrInvalidResponse)
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text parts", ErrInvalidResponse)
	}
	return text, nil
}

// parseVerdict decodes the model's JSON verdict, tolerating the
// markdown fences models sometimes wrap JSON in despite instructions.
func parseVerdict(text string) (*grading.Verdict, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var schema verdictSchema
	if err := json.Unmarshal([]byte(text), &schema); err != nil {
		return nil, fmt.Errorf("%w: failed to parse verdict JSON: %v", ErrInvalidResponse, err)
	}

	return &grading.Verdict{Correct: schema.Correct, Feedback: schema.Feedback}, nil
}
