package prompts

import (
	"fmt"
	"strings"
)

// Teaching style keys.
const (
	Standard     = "standard"
	Short        = "short"
	Interactive  = "interactive"
	Advanced     = "advanced"
	Storytelling = "storytelling"
	DeepAnalysis = "deepanalysis"
)

// DefaultStyle is used when a request does not name one.
const DefaultStyle = Short

// QuizQuestionCount is how many questions the quiz prompts ask for.
const QuizQuestionCount = 3

// Literal markers of the text quiz layout. The parser in internal/gemini
// matches on exactly these prefixes.
const (
	QuestionMarker      = "Question:"
	OptionsMarker       = "Options: "
	CorrectAnswerMarker = "Correct Answer: "
	ExplanationMarker   = "Explanation: "
	OptionSeparator     = " | "
)

// StyleInfo describes a teaching style for the style picker.
type StyleInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

const standardTemplate = `You are a supportive mentor. When you answer:
1. Open with a relatable real-world example or a question that sparks curiosity
2. Invite the learner to think along instead of just reading
3. Split complex ideas into small, digestible pieces
4. Give clear explanations with concrete examples
5. Check understanding with a quick question or two along the way
6. Close with a short summary and a word of encouragement

Keep the tone conversational, use analogies where they help, and correct misconceptions gently.`

const shortTemplate = `Give a concise, focused explanation:
1. State the key concept first
2. Give exactly one clear example
3. Finish with a one-line summary
4. Prefer bullet points
Stay within three or four sentences where possible.`

const interactiveTemplate = `Turn the answer into an interactive lesson:
1. Start with a thought-provoking question
2. Cover the topic in small segments
3. Ask a follow-up question after each segment
4. Offer hints before revealing full answers
5. Guide the learner Socratically
6. Add a small challenge or puzzle
7. Acknowledge each milestone the learner reaches`

const advancedTemplate = `Deliver a thorough, in-depth treatment:
1. Lay down the foundational concepts
2. Build up to advanced applications
3. Include the theoretical background
4. Work through detailed examples
5. Discuss edge cases and exceptions
6. Connect the topic to related ideas
7. Question common assumptions and push for deeper analysis`

const storytellingTemplate = `Teach through a story:
1. Frame the concept inside a scenario or narrative
2. Use characters and plot to make each point
3. Keep some tension so the reader wants to continue
4. Tie the story back to the real world
5. Build to a satisfying conclusion
6. Offer the reader a choice at a key moment
7. End with a few reflection questions`

const deepAnalysisTemplate = `Produce a comprehensive breakdown:
1. Define the topic precisely and outline its scope
2. Decompose it into its components and explain each one
3. Analyse how the components interact, including causes and effects
4. Compare competing interpretations or approaches
5. Point out limitations, open problems and common mistakes
6. Summarise the key takeaways as a structured list`

var templates = map[string]string{
	Standard:     standardTemplate,
	Short:        shortTemplate,
	Interactive:  interactiveTemplate,
	Advanced:     advancedTemplate,
	Storytelling: storytellingTemplate,
	DeepAnalysis: deepAnalysisTemplate,
}

var styles = []StyleInfo{
	{Key: Standard, Label: "Standard", Description: "Balanced teaching approach"},
	{Key: Short, Label: "Concise", Description: "Brief, to-the-point explanations"},
	{Key: Interactive, Label: "Interactive", Description: "Engaging, question-based teaching"},
	{Key: Advanced, Label: "Advanced", Description: "Deep, technical explanations"},
	{Key: Storytelling, Label: "Storytelling", Description: "Narrative-based learning"},
	{Key: DeepAnalysis, Label: "Deep Analysis", Description: "Comprehensive breakdowns"},
}

// Resolve returns the instructional template for a teaching style.
// Unknown styles get the standard template.
func Resolve(style string) string {
	if t, ok := templates[style]; ok {
		return t
	}
	return standardTemplate
}

// Valid reports whether style is a known teaching style key.
func Valid(style string) bool {
	_, ok := templates[style]
	return ok
}

// Styles lists the teaching styles in display order.
func Styles() []StyleInfo {
	out := make([]StyleInfo, len(styles))
	copy(out, styles)
	return out
}

// Compose prefixes the user's question with the template for style.
func Compose(style, question string) string {
	return Resolve(style) + "\n\nThe learner asks: " + question
}

// QuizPrompt asks for exactly three multiple-choice questions in the
// literal text layout understood by the text quiz parser.
func QuizPrompt(question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d multiple-choice questions that test understanding of the following topic: %s\n\n", QuizQuestionCount, question)
	b.WriteString("Use exactly this layout for every question and nothing else:\n\n")
	b.WriteString(QuestionMarker + " <question text>\n")
	b.WriteString(OptionsMarker + "<option 1>" + OptionSeparator + "<option 2>" + OptionSeparator + "<option 3>" + OptionSeparator + "<option 4>\n")
	b.WriteString(CorrectAnswerMarker + "<the correct option, copied exactly>\n")
	b.WriteString(ExplanationMarker + "<one sentence on why it is correct>\n\n")
	b.WriteString("Do not number the questions and do not use markdown.")
	return b.String()
}

// StructuredQuizPrompt asks for the quiz as JSON; the response schema is
// attached by the caller.
func StructuredQuizPrompt(question string) string {
	return fmt.Sprintf(`Write exactly %d multiple-choice questions that test understanding of the following topic: %s

Each question has four options. "correct_answer" must repeat one of the options word for word.
"explanation" is one sentence on why that option is correct.`, QuizQuestionCount, question)
}
