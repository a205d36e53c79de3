package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Gemini is the generation-side interface: grounded answers against a store
// and example questions for a freshly opened one.
type Gemini interface {
	Query(ctx context.Context, storeID model.StoreID, text string) (*model.ChatMessage, error)
	SuggestQuestions(ctx context.Context, storeID model.StoreID) ([]string, error)
}

type GeminiClient struct {
	client          *genai.Client
	generativeModel string
}

type GeminiOption func(*GeminiClient)

func WithGenerativeModel(m string) GeminiOption {
	return func(g *GeminiClient) {
		g.generativeModel = m
	}
}

func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	g := &GeminiClient{
		client:          client,
		generativeModel: "gemini-2.5-flash",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) groundedConfig(storeID model.StoreID) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{
				FileSearch: &genai.FileSearch{
					FileSearchStoreNames: []string{string(storeID)},
				},
			},
		},
	}
}

// Query runs a generation request constrained to cite evidence from the
// given store and returns a model turn carrying the answer text plus its
// grounding citations in response order.
func (g *GeminiClient) Query(ctx context.Context, storeID model.StoreID, text string) (*model.ChatMessage, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, g.groundedConfig(storeID))
	if err != nil {
		if isCredentialAPIError(err) {
			return nil, goerr.Wrap(model.ErrCredentialRejected, "query rejected", goerr.V("store_id", storeID))
		}
		return nil, goerr.Wrap(err, "failed to run grounded query", goerr.V("store_id", storeID))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("grounded query returned no candidates", goerr.V("store_id", storeID))
	}

	cand := resp.Candidates[0]
	var parts []string
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}

	var chunks []model.GroundingChunk
	if cand.GroundingMetadata != nil {
		for _, ch := range cand.GroundingMetadata.GroundingChunks {
			rc := ch.RetrievedContext
			if rc == nil {
				continue
			}
			chunks = append(chunks, model.GroundingChunk{
				Title: rc.Title,
				Text:  rc.Text,
				URI:   rc.URI,
			})
		}
	}

	return &model.ChatMessage{
		ID:     model.NewMessageID(),
		Role:   model.RoleModel,
		Parts:  parts,
		Chunks: chunks,
	}, nil
}

const suggestPrompt = `Based on the documents available to you, propose 4 short questions a reader is likely to ask. Respond with ONLY a JSON array of strings, no prose, no code fences.`

// SuggestQuestions derives example questions for a store. Best-effort by
// contract: the caller treats any error as an empty question list.
func (g *GeminiClient) SuggestQuestions(ctx context.Context, storeID model.StoreID) ([]string, error) {
	contents := []*genai.Content{genai.NewContentFromText(suggestPrompt, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.generativeModel, contents, g.groundedConfig(storeID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate suggestions", goerr.V("store_id", storeID))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.New("suggestion response has no candidates", goerr.V("store_id", storeID))
	}

	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}

	questions, err := parseQuestionList(text)
	if err != nil {
		logging.From(ctx).Warn("malformed suggestion output", "error", err, "store_id", storeID)
		return nil, err
	}

	return questions, nil
}

// parseQuestionList tolerates code fences and surrounding prose around the
// JSON array the model was asked for.
func parseQuestionList(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, goerr.New("no JSON array in suggestion output")
	}

	var questions []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &questions); err != nil {
		return nil, goerr.Wrap(err, "failed to decode suggestion output")
	}

	return questions, nil
}

func isCredentialAPIError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 401 || apiErr.Code == 403 {
			return true
		}
		if apiErr.Code == 400 && strings.Contains(apiErr.Message, "API key") {
			return true
		}
	}
	return false
}
