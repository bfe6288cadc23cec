package gemini

import (
	"context"
	"testing"
	"text/template"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func mustTemplate(t *testing.T) *template.Template {
	t.Helper()
	tmpl, err := template.New("verdict").Parse(promptTemplateText)
	require.NoError(t, err)
	return tmpl
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantCorrect bool
		wantErr     bool
	}{
		{
			name:        "plain json",
			input:       `{"correct": true, "feedback": "Nice."}`,
			wantCorrect: true,
		},
		{
			name:        "fenced json",
			input:       "```json\n{\"correct\": false, \"feedback\": \"Wrong article.\"}\n```",
			wantCorrect: false,
		},
		{
			name:        "bare fence",
			input:       "```\n{\"correct\": true, \"feedback\": \"\"}\n```",
			wantCorrect: true,
		},
		{
			name:    "prose instead of json",
			input:   "The answer looks correct to me.",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			verdict, err := parseVerdict(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantCorrect, verdict.Correct)
		})
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	t.Run("concatenates text parts", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: `{"correct": true,`},
						{Text: ` "feedback": "Good."}`},
					},
				},
			}},
		}

		text, err := extractText(resp)
		require.NoError(t, err)
		assert.Equal(t, `{"correct": true, "feedback": "Good."}`, text)
	})

	t.Run("safety block", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content:      &genai.Content{},
				FinishReason: genai.FinishReasonSafety,
			}},
		}

		_, err := extractText(resp)
		assert.ErrorIs(t, err, ErrContentBlocked)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()

		_, err := extractText(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, ErrInvalidResponse)

		_, err = extractText(nil)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{nil, {}}},
			}},
		}

		_, err := extractText(resp)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestBuildPromptIncludesAttemptAndTarget(t *testing.T) {
	t.Parallel()

	grader := &Grader{
		promptTemplate: mustTemplate(t),
	}

	prompt, err := grader.buildPrompt("ein Hund", "der Hund")
	require.NoError(t, err)
	assert.Contains(t, prompt, "ein Hund")
	assert.Contains(t, prompt, "der Hund")
	assert.Contains(t, prompt, `"correct"`)
}

func TestBuildPromptRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	grader := &Grader{promptTemplate: mustTemplate(t)}

	_, err := grader.buildPrompt("", "der Hund")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = grader.buildPrompt("ein Hund", "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHealthyCooldownAfterFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	grader := &Grader{}
	assert.False(t, grader.Healthy(ctx), "nil client is never healthy")

	grader.client = &genai.Client{}
	assert.True(t, grader.Healthy(ctx), "zero lastFailure means healthy")

	grader.recordFailure()
	assert.False(t, grader.Healthy(ctx), "recent failure trips the cooldown")

	grader.mu.Lock()
	grader.lastFailure = time.Now().Add(-2 * healthCooldown)
	grader.mu.Unlock()
	assert.True(t, grader.Healthy(ctx), "cooldown expires")
}
