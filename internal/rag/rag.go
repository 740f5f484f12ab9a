package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/helpers"
	"github.com/mohammad-safakhou/newsrag/internal/vectorindex"
)

const unknownTitle = "Unknown Title"

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Retriever returns the k documents closest to a question.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]vectorindex.Match, error)
}

// Generator completes a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Answer is a generated reply with one reference line per context document.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}

// BuildPrompt lays out the retrieved articles as context blocks followed by the question.
func BuildPrompt(question string, matches []vectorindex.Match) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nContent:\n%s", titleOf(m.Document), m.Content))
	}
	var b strings.Builder
	b.WriteString("Use the following news context to answer the question. ")
	b.WriteString("If the answer is not found, say you don't know.\n\n")
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

func titleOf(d vectorindex.Document) string {
	if t := strings.TrimSpace(d.Title()); t != "" {
		return t
	}
	return unknownTitle
}

// Answerer retrieves context for a question and asks the generator.
type Answerer struct {
	retriever Retriever
	generator Generator
	topK      int
	logger    *log.Logger
}

func NewAnswerer(retriever Retriever, generator Generator, topK int, logger *log.Logger) *Answerer {
	if topK <= 0 {
		topK = 4
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	return &Answerer{retriever: retriever, generator: generator, topK: topK, logger: logger}
}

func (a *Answerer) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}
	matches, err := a.retriever.Query(ctx, question, a.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	a.logger.Printf("retrieved %d documents for %q", len(matches), question)

	text, err := a.generator.Generate(ctx, BuildPrompt(question, matches))
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}
	sources := make([]string, len(matches))
	for i, m := range matches {
		sources[i] = helpers.FormatSource(titleOf(m.Document), m.URL, m.PublishedAt)
	}
	return Answer{Text: strings.TrimSpace(text), Sources: sources}, nil
}

// OpenAIGenerator runs chat completions against any OpenAI-compatible endpoint.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIGenerator(cfg config.LLMConfig) *OpenAIGenerator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.ChatModel,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
