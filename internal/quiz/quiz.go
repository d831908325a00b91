// Package quiz turns song lyrics into a short trivia quiz with an LLM.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sukalov/songquiz/internal/config"
	"github.com/sukalov/songquiz/internal/logger"
)

// QuestionCount is the number of questions in every Set.
const QuestionCount = 5

const systemPrompt = "You are a helpful assistant designed to output JSON."

// ErrGeneration means no valid quiz could be produced.
var ErrGeneration = errors.New("failed to generate quiz questions")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Question is one quiz question.
type Question struct {
	QuestionText  string `json:"question_text"`
	CorrectAnswer string `json:"correct_answer"`
}

// Set is an ordered list of QuestionCount questions.
type Set struct {
	Questions []Question `json:"questions"`
}

// Generator asks a chat completion model for quiz questions.
type Generator struct {
	client *openai.Client
	model  string
	locale string
}

// NewGenerator creates a Generator. A nil client makes every Generate fail
// with config.ErrMissingCredential.
func NewGenerator(client *openai.Client, model, locale string) *Generator {
	if model == "" {
		model = config.DefaultOpenAIModel
	}
	if locale == "" {
		locale = config.DefaultQuizLocale
	}
	return &Generator{client: client, model: model, locale: locale}
}

// NewClient builds the OpenAI client, or returns nil when apiKey is empty.
func NewClient(apiKey, baseURL string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// Prompt builds the user message for lyrics.
func (g *Generator) Prompt(lyrics string) string {
	return fmt.Sprintf(
		"You are an assistant for creating simple and fun music quizzes. "+
			"Your task is to generate %d quiz questions in %s based on the provided song lyrics. "+
			"The questions should be straightforward and suitable for a casual audience. Please include the following types of questions:\n"+
			"- At least one question asking to continue a specific line from the song (e.g., 'Finish the line: ...').\n"+
			"- If there are any proper nouns (names of people, places, characters), create a question about one of them.\n"+
			"- The rest should be simple, factual questions about details in the lyrics.\n\n"+
			"IMPORTANT: Avoid deep, philosophical, or open-ended questions about the song's meaning.\n\n"+
			"Format the output as a JSON object with a single key 'questions', which is an array of objects. "+
			"Each object must have 'question_text' and 'correct_answer'. Both fields must be in %s.\n\n"+
			"Here are the lyrics:\n\n%s",
		QuestionCount, g.locale, g.locale, lyrics,
	)
}

// Generate asks the model for a quiz about lyrics. There is no retry.
func (g *Generator) Generate(ctx context.Context, lyrics string) (*Set, error) {
	if g.client == nil {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY: %w", ErrGeneration, config.ErrMissingCredential)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: g.Prompt(lyrics)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		logger.Error(fmt.Sprintf("An error occurred while calling OpenAI: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrGeneration)
	}

	return Parse(resp.Choices[0].Message.Content)
}

// Parse decodes and checks a model reply. Extra questions are dropped.
func Parse(content string) (*Set, error) {
	var set Set
	if err := json.Unmarshal([]byte(content), &set); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrGeneration, err)
	}

	if len(set.Questions) < QuestionCount {
		return nil, fmt.Errorf("%w: got %d questions, want %d", ErrGeneration, len(set.Questions), QuestionCount)
	}
	set.Questions = set.Questions[:QuestionCount]

	for i, q := range set.Questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrGeneration, i+1)
		}
	}
	return &set, nil
}
