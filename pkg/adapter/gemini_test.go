package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/libris-dev/libris/pkg/adapter"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestParseQuestionList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
		wantErr  bool
	}{
		{
			name:     "bare array",
			input:    `["How do I install it?","What formats are supported?"]`,
			expected: []string{"How do I install it?", "What formats are supported?"},
		},
		{
			name:     "code fenced",
			input:    "```json\n[\"Only one question\"]\n```",
			expected: []string{"Only one question"},
		},
		{
			name:     "surrounding prose",
			input:    `Sure! Here are some questions: ["A?","B?"] Hope that helps.`,
			expected: []string{"A?", "B?"},
		},
		{
			name:    "no array at all",
			input:   "I could not come up with anything.",
			wantErr: true,
		},
		{
			name:    "array of non-strings",
			input:   `[1,2,3]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := adapter.ParseQuestionList(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.A(t, questions).Length(len(tt.expected))
			for i, q := range tt.expected {
				gt.V(t, questions[i]).Equal(q)
			}
		})
	}
}

func TestGroundedQuery(t *testing.T) {
	apiKey := os.Getenv("TEST_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_GEMINI_API_KEY is not set")
	}
	storeName := os.Getenv("TEST_FILE_SEARCH_STORE")
	if storeName == "" {
		t.Skip("TEST_FILE_SEARCH_STORE is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, apiKey)
	gt.NoError(t, err)

	msg, err := client.Query(ctx, model.StoreID("fileSearchStores/"+storeName), "What is this document about?")
	if err != nil {
		t.Fatal("failed to run grounded query", err)
	}

	if msg == nil || msg.Text() == "" {
		t.Fatal("unexpected response")
	}

	t.Log("response:", msg.Text())
}
