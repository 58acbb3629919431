package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"quicklearn/internal/models"
	"quicklearn/internal/prompts"

	"github.com/google/generative-ai-go/genai"
)

var (
	// ErrNoQuestions is returned when a quiz response yields no usable question.
	ErrNoQuestions = errors.New("quiz response contained no questions")
	// ErrInvalidQuiz wraps every validation failure of a structured quiz.
	ErrInvalidQuiz = errors.New("invalid quiz")
)

// quizSchema constrains the structured quiz response.
var quizSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"questions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question": {Type: genai.TypeString},
					"options": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
					"correct_answer": {Type: genai.TypeString},
					"explanation":    {Type: genai.TypeString},
				},
				Required: []string{"question", "options", "correct_answer"},
			},
		},
	},
	Required: []string{"questions"},
}

type quizPayload struct {
	Questions []models.QuizQuestion `json:"questions"`
}

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// ParseQuizJSON decodes and validates a structured quiz. Any malformed
// question fails the whole quiz. At most three questions are returned.
func ParseQuizJSON(raw string) ([]models.QuizQuestion, error) {
	text := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(text); len(m) > 1 {
		text = m[1]
	}

	var payload quizPayload
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %v", ErrInvalidQuiz, err)
	}
	if len(payload.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	if len(payload.Questions) > prompts.QuizQuestionCount {
		payload.Questions = payload.Questions[:prompts.QuizQuestionCount]
	}
	out := make([]models.QuizQuestion, 0, len(payload.Questions))
	for i, q := range payload.Questions {
		q = normalize(q)
		if err := validate(q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrInvalidQuiz, i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func normalize(q models.QuizQuestion) models.QuizQuestion {
	q.Question = strings.TrimSpace(q.Question)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	q.Explanation = strings.TrimSpace(q.Explanation)
	opts := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	q.Options = opts
	return q
}

func validate(q models.QuizQuestion) error {
	if q.Question == "" {
		return errors.New("missing question text")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("need at least 2 options, got %d", len(q.Options))
	}
	if q.CorrectAnswer == "" {
		return errors.New("missing correct answer")
	}
	for _, o := range q.Options {
		if o == q.CorrectAnswer {
			return nil
		}
	}
	return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer)
}

// ParseQuizText scrapes quiz questions from the literal text layout.
// A new block starts at every line beginning with "Question:". Blocks without
// a question, options or a correct answer are dropped. At most three
// questions are kept.
func ParseQuizText(raw string) []models.QuizQuestion {
	var blocks [][]string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, prompts.QuestionMarker) {
			blocks = append(blocks, []string{line})
			continue
		}
		if len(blocks) > 0 {
			blocks[len(blocks)-1] = append(blocks[len(blocks)-1], line)
		}
	}

	var out []models.QuizQuestion
	for _, block := range blocks {
		q, ok := parseBlock(block)
		if !ok {
			continue
		}
		out = append(out, q)
		if len(out) == prompts.QuizQuestionCount {
			break
		}
	}
	return out
}

func parseBlock(lines []string) (models.QuizQuestion, bool) {
	var q models.QuizQuestion
	q.Question = strings.TrimSpace(strings.TrimPrefix(lines[0], prompts.QuestionMarker))
	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, prompts.OptionsMarker):
			for _, o := range strings.Split(strings.TrimPrefix(line, prompts.OptionsMarker), strings.TrimSpace(prompts.OptionSeparator)) {
				if o = strings.TrimSpace(o); o != "" {
					q.Options = append(q.Options, o)
				}
			}
		case strings.HasPrefix(line, prompts.CorrectAnswerMarker):
			q.CorrectAnswer = strings.TrimSpace(strings.TrimPrefix(line, prompts.CorrectAnswerMarker))
		case strings.HasPrefix(line, prompts.ExplanationMarker):
			q.Explanation = strings.TrimSpace(strings.TrimPrefix(line, prompts.ExplanationMarker))
		}
	}
	if q.Question == "" || len(q.Options) == 0 || q.CorrectAnswer == "" {
		return models.QuizQuestion{}, false
	}
	return q, true
}
