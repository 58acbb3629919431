package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quicklearn/internal/config"
	"quicklearn/internal/logger"
	"quicklearn/internal/models"
	"quicklearn/internal/prompts"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// ModelName is the Gemini model used when none is configured
	ModelName = "gemini-2.0-flash"
	// maxOutputTokens caps both explanation and quiz responses
	maxOutputTokens = 4096
)

// ErrNoResponse is returned when the model answered without any text.
var ErrNoResponse = errors.New("no response from model")

// Client wraps the Gemini client. The two models are configured once at
// construction and never mutated afterwards, so a Client is safe for
// concurrent use.
type Client struct {
	client       *genai.Client
	explainModel *genai.GenerativeModel
	quizModel    *genai.GenerativeModel
	quizMode     string
	log          *logger.Logger
}

// NewClient creates a new Gemini client for the given model and quiz mode.
func NewClient(ctx context.Context, apiKey, modelName, quizMode string, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = ModelName
	}
	if log == nil {
		log = logger.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	explain := client.GenerativeModel(modelName)
	explain.SetTemperature(0.7)
	explain.SetMaxOutputTokens(maxOutputTokens)

	quiz := client.GenerativeModel(modelName)
	quiz.SetTemperature(0.2)
	quiz.SetMaxOutputTokens(maxOutputTokens)
	if quizMode == config.QuizModeStructured {
		quiz.ResponseMIMEType = "application/json"
		quiz.ResponseSchema = quizSchema
	}

	return &Client{
		client:       client,
		explainModel: explain,
		quizModel:    quiz,
		quizMode:     quizMode,
		log:          log.With("component", "gemini", "model", modelName),
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() {
	c.client.Close()
}

// Explain sends an already composed prompt and returns the generated text.
func (c *Client) Explain(ctx context.Context, prompt string) (string, error) {
	resp, err := c.explainModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate explanation: %w", err)
	}
	text, err := firstText(resp)
	if err != nil {
		return "", err
	}
	c.log.Debug("explanation generated", "chars", len(text))
	return text, nil
}

// GenerateQuiz asks the model for up to three multiple-choice questions about
// question. In structured mode the answer is schema-constrained JSON that must
// validate; in text mode the literal layout is scraped and malformed blocks are
// dropped.
func (c *Client) GenerateQuiz(ctx context.Context, question string) ([]models.QuizQuestion, error) {
	prompt := prompts.QuizPrompt(question)
	if c.quizMode == config.QuizModeStructured {
		prompt = prompts.StructuredQuizPrompt(question)
	}

	resp, err := c.quizModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}
	raw, err := allText(resp)
	if err != nil {
		return nil, err
	}

	if c.quizMode == config.QuizModeStructured {
		quiz, err := ParseQuizJSON(raw)
		if err != nil {
			c.log.Debug("rejected quiz payload", "raw", raw)
			return nil, err
		}
		return quiz, nil
	}

	quiz := ParseQuizText(raw)
	if len(quiz) == 0 {
		c.log.Debug("no quiz blocks matched the layout", "raw", raw)
		return nil, ErrNoQuestions
	}
	return quiz, nil
}

// firstText returns the text of the first part of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoResponse
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", ErrNoResponse
	}
	text, ok := content.Parts[0].(genai.Text)
	if !ok || strings.TrimSpace(string(text)) == "" {
		return "", ErrNoResponse
	}
	return string(text), nil
}

// allText joins every text part of the first candidate.
func allText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoResponse
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoResponse
	}
	return b.String(), nil
}
