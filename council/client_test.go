package council

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/councilflow/llm"
	"github.com/BaSui01/councilflow/testutil/mocks"
)

func testRoster() Roster {
	return Roster{
		{ID: "alice", Name: "Alice", Model: "m-alice", Personality: "analytical", Role: "The Analyst"},
		{ID: "bob", Name: "Bob", Model: "m-bob", Personality: "creative", Role: "The Innovator"},
		{ID: "charlie", Name: "Charlie", Model: "m-charlie", Personality: "skeptical", Role: "The Critic"},
	}
}

func testClient(provider llm.Provider) *Client {
	return newClient(provider, 700, 5*time.Second, nil, zap.NewNop())
}

// ============================================================================
// Single Query
// ============================================================================

func TestClient_QueryPrependsSystemPrompt(t *testing.T) {
	t.Parallel()

	provider := mocks.NewSuccessProvider("fine")
	client := testClient(provider)

	reply := client.query(context.Background(), "m-alice",
		[]llm.Message{llm.NewUserMessage("question")},
		queryOptions{systemPrompt: "you are Alice"})

	require.NotNil(t, reply)
	assert.Equal(t, "fine", reply.Content)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, 2)
	assert.Equal(t, llm.RoleSystem, calls[0].Messages[0].Role)
	assert.Equal(t, "you are Alice", calls[0].Messages[0].Content)
	assert.Equal(t, llm.RoleUser, calls[0].Messages[1].Role)
}

func TestClient_QueryPassesThroughToolCalls(t *testing.T) {
	t.Parallel()

	calls := []llm.ToolCall{{
		ID:        "call-1",
		Name:      ToolSendMessage,
		Arguments: []byte(`{"to_member":"Bob","message":"hi"}`),
	}}
	client := testClient(mocks.NewToolCallProvider(calls))

	reply := client.query(context.Background(), "m-alice",
		[]llm.Message{llm.NewUserMessage("q")}, queryOptions{})

	require.NotNil(t, reply)
	assert.Equal(t, calls, reply.ToolCalls)
}

func TestClient_QueryDegradesToNil(t *testing.T) {
	t.Parallel()

	t.Run("provider error", func(t *testing.T) {
		t.Parallel()
		client := testClient(mocks.NewErrorProvider(errors.New("connection refused")))
		assert.Nil(t, client.query(context.Background(), "m-alice",
			[]llm.Message{llm.NewUserMessage("q")}, queryOptions{}))
	})

	t.Run("empty choices", func(t *testing.T) {
		t.Parallel()
		provider := mocks.NewMockProvider().WithCompletionFunc(
			func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
				return &llm.ChatResponse{Model: req.Model}, nil
			})
		client := testClient(provider)
		assert.Nil(t, client.query(context.Background(), "m-alice",
			[]llm.Message{llm.NewUserMessage("q")}, queryOptions{}))
	})

	t.Run("per-call timeout", func(t *testing.T) {
		t.Parallel()
		provider := mocks.NewSuccessProvider("slow").WithDelay(200 * time.Millisecond)
		client := testClient(provider)
		assert.Nil(t, client.query(context.Background(), "m-alice",
			[]llm.Message{llm.NewUserMessage("q")},
			queryOptions{timeout: 10 * time.Millisecond}))
	})
}

// ============================================================================
// Fan-Out
// ============================================================================

func TestClient_FanOutPreservesRosterOrder(t *testing.T) {
	t.Parallel()

	provider := mocks.NewMockProvider().WithCompletionFunc(
		func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{
				Model: req.Model,
				Choices: []llm.ChatChoice{{
					Message: llm.NewAssistantMessage("answer from " + req.Model),
				}},
			}, nil
		})
	client := testClient(provider)

	replies := client.fanOut(context.Background(), testRoster(),
		[]llm.Message{llm.NewUserMessage("q")})

	require.Len(t, replies, 3)
	assert.Equal(t, "answer from m-alice", replies[0].Content)
	assert.Equal(t, "answer from m-bob", replies[1].Content)
	assert.Equal(t, "answer from m-charlie", replies[2].Content)
}

func TestClient_FanOutPartialFailure(t *testing.T) {
	t.Parallel()

	provider := mocks.NewMockProvider().WithCompletionFunc(
		func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			if req.Model == "m-bob" {
				return nil, errors.New("rate limited")
			}
			return &llm.ChatResponse{
				Model:   req.Model,
				Choices: []llm.ChatChoice{{Message: llm.NewAssistantMessage("ok")}},
			}, nil
		})
	client := testClient(provider)

	replies := client.fanOut(context.Background(), testRoster(),
		[]llm.Message{llm.NewUserMessage("q")})

	require.Len(t, replies, 3)
	assert.NotNil(t, replies[0])
	assert.Nil(t, replies[1])
	assert.NotNil(t, replies[2])
}

func TestClient_FanOutCarriesIdentityPrompts(t *testing.T) {
	t.Parallel()

	provider := mocks.NewSuccessProvider("ok")
	client := testClient(provider)
	roster := testRoster()

	replies := client.fanOut(context.Background(), roster,
		[]llm.Message{llm.NewUserMessage("q")})
	require.Len(t, replies, 3)

	calls := provider.Calls()
	require.Len(t, calls, 3)
	seen := make(map[string]string, len(calls))
	for _, call := range calls {
		require.NotEmpty(t, call.Messages)
		require.Equal(t, llm.RoleSystem, call.Messages[0].Role)
		seen[call.Model] = call.Messages[0].Content
	}
	for _, m := range roster {
		assert.Contains(t, seen[m.Model], m.Name)
		assert.Contains(t, seen[m.Model], m.Personality)
	}
}

func TestClient_FanOutEmptyRoster(t *testing.T) {
	t.Parallel()

	client := testClient(mocks.NewSuccessProvider("ok"))
	replies := client.fanOut(context.Background(), Roster{}, nil)
	assert.Empty(t, replies)
}
