// Package generation turns raw clues into multiple-choice trivia drafts
// by calling an Ollama-compatible text-generation service.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/metrics"
	"github.com/trivia-api-service/internal/model"
)

var (
	// ErrUpstreamUnavailable means the generation service could not be reached.
	ErrUpstreamUnavailable = errors.New("generation service unavailable")
	// ErrUpstream means the generation service returned a non-success response.
	ErrUpstream = errors.New("generation service error")
)

const wrongAnswerCount = 3

// Client issues one synchronous generation request per call. It does not
// retry; that is the pipeline's job.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the identifier of the generating model, recorded on every
// trivia question it produces.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model  string          `json:"model"`
	Prompt string          `json:"prompt"`
	Format json.RawMessage `json:"format"`
	Stream bool            `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// outputSchema constrains the model to the exact draft shape.
const outputSchema = `{
	"type": "object",
	"properties": {
		"question": {
			"type": "string",
			"description": "The rephrased trivia question"
		},
		"correctAnswer": {
			"type": "string",
			"description": "The correct answer to the question"
		},
		"wrongAnswers": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Three plausible but incorrect answers",
			"minItems": 3,
			"maxItems": 3
		}
	},
	"required": ["question", "correctAnswer", "wrongAnswers"]
}`

// Generate converts a clue into a trivia draft. Unreachable or failing
// upstreams return an error; output that cannot be parsed into the draft
// shape is replaced by a deterministic fallback built from the clue itself.
func (c *Client) Generate(ctx context.Context, clue *model.Clue) (*model.TriviaDraft, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: buildPrompt(clue),
		Format: json.RawMessage(outputSchema),
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// A success status with an undecodable body is malformed model output,
	// not an upstream failure, so it recovers through the fallback too.
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Warn().Int64("clue_id", clue.ID).Err(err).Msg("undecodable generation response, using fallback draft")
		metrics.GenerationFallbacks.Inc()
		return fallbackDraft(clue), nil
	}

	var draft model.TriviaDraft
	if err := json.Unmarshal([]byte(out.Response), &draft); err != nil || draft.Question == "" || draft.CorrectAnswer == "" {
		log.Warn().Int64("clue_id", clue.ID).Str("raw", out.Response).Msg("unparsable generation output, using fallback draft")
		metrics.GenerationFallbacks.Inc()
		return fallbackDraft(clue), nil
	}

	draft.WrongAnswers = normalizeWrongAnswers(draft.WrongAnswers)
	return &draft, nil
}

// fallbackDraft builds a draft purely from the clue's own text.
func fallbackDraft(clue *model.Clue) *model.TriviaDraft {
	return &model.TriviaDraft{
		Question:      fmt.Sprintf("In the category %q: %s", clue.Category, clue.Question),
		CorrectAnswer: clue.Answer,
		WrongAnswers:  []string{"Wrong option 1", "Wrong option 2", "Wrong option 3"},
	}
}

// normalizeWrongAnswers truncates to exactly three entries, padding with
// filler when the model returned fewer.
func normalizeWrongAnswers(answers []string) []string {
	if len(answers) > wrongAnswerCount {
		answers = answers[:wrongAnswerCount]
	}
	for len(answers) < wrongAnswerCount {
		answers = append(answers, fmt.Sprintf("Filler answer %d", len(answers)+1))
	}
	return answers
}

func buildPrompt(clue *model.Clue) string {
	return fmt.Sprintf(`You are generating a multiple-choice trivia question based on a quiz-show clue.

Original Category: %s
Original Clue: %s
Correct Answer: %s

Please rephrase this into a clear, engaging multiple-choice trivia question.

Create a set of 3 plausible wrong answers that:
- Are related to the category
- Different from each other
- In a similar format/style as the correct answer
- Are somewhat plausible but clearly incorrect to someone who knows the subject

The wrong answers should be at a medium difficulty level - not too obvious, but not extremely tricky.

Return as JSON.
`, clue.Category, clue.Question, clue.Answer)
}
