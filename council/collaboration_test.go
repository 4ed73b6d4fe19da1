package council

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/councilflow/llm"
	"github.com/BaSui01/councilflow/testutil/mocks"
)

func testStage1(roster Roster) []Stage1Result {
	results := make([]Stage1Result, 0, len(roster))
	for _, m := range roster {
		results = append(results, Stage1Result{
			MemberID:   m.ID,
			MemberName: m.Name,
			Model:      m.Model,
			Role:       m.Role,
			Response:   "initial thoughts from " + m.Name,
		})
	}
	return results
}

func sendMessageCall(id, to, message string) llm.ToolCall {
	args, _ := json.Marshal(map[string]string{"to_member": to, "message": message})
	return llm.ToolCall{ID: id, Name: ToolSendMessage, Arguments: args}
}

// isFirstRound reports whether a collaboration request is the member's
// round-1 turn, which opens with the initial context rather than the
// continuation prompt.
func isFirstRound(req *llm.ChatRequest) bool {
	for _, msg := range req.Messages {
		if msg.Role == llm.RoleUser {
			return strings.Contains(msg.Content, "Original Question:")
		}
	}
	return false
}

func collabEngine(provider llm.Provider, roster Roster, maxRounds int) *collaborationEngine {
	client := newClient(provider, 700, 5*time.Second, nil, zap.NewNop())
	return newCollaborationEngine(client, roster, maxRounds, nil, zap.NewNop())
}

// ============================================================================
// Round-Boundary Delivery
// ============================================================================

func TestCollaboration_MessageVisibleNextRoundOnly(t *testing.T) {
	t.Parallel()

	roster := testRoster()[:2] // Alice, Bob
	provider := mocks.NewMockProvider().WithCompletionFunc(
		func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			msg := llm.NewAssistantMessage("thinking out loud")
			if req.Model == "m-alice" && isFirstRound(req) {
				msg.ToolCalls = []llm.ToolCall{sendMessageCall("call-1", "Bob", "check the premise")}
			}
			return &llm.ChatResponse{
				Model:   req.Model,
				Choices: []llm.ChatChoice{{Message: msg}},
			}, nil
		})
	engine := collabEngine(provider, roster, 2)

	log := engine.run(context.Background(), "why is the sky blue?", testStage1(roster))

	// Turn order: Alice r1, Bob r1, delivery, Alice r2, Bob r2.
	require.Len(t, log, 5)
	assert.Equal(t, EntryTurn, log[0].Type)
	assert.Equal(t, EntryTurn, log[1].Type)
	require.Equal(t, EntryMessageDelivery, log[2].Type)
	assert.Equal(t, 1, log[2].Round)
	assert.Equal(t, "Alice", log[2].From)
	assert.Equal(t, "Bob", log[2].To)
	assert.Equal(t, "check the premise", log[2].Message)
	assert.Equal(t, 2, log[3].Round)
	assert.Equal(t, 2, log[4].Round)

	var bobRequests []*llm.ChatRequest
	for _, call := range provider.Calls() {
		if call.Model == "m-bob" {
			bobRequests = append(bobRequests, call)
		}
	}
	require.Len(t, bobRequests, 2)

	delivered := "Message from Alice: check the premise"
	for _, msg := range bobRequests[0].Messages {
		assert.NotContains(t, msg.Content, delivered)
	}

	found := false
	for _, msg := range bobRequests[1].Messages {
		if msg.Role == llm.RoleUser && msg.Content == delivered {
			found = true
		}
	}
	assert.True(t, found, "delivered message missing from Bob's round-2 history")
}

func TestCollaboration_UnknownRecipientDroppedSilently(t *testing.T) {
	t.Parallel()

	roster := testRoster()[:2]
	provider := mocks.NewMockProvider().WithCompletionFunc(
		func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			msg := llm.NewAssistantMessage("pondering")
			if req.Model == "m-alice" && isFirstRound(req) {
				msg.ToolCalls = []llm.ToolCall{sendMessageCall("call-1", "Zed", "hello?")}
			}
			return &llm.ChatResponse{
				Model:   req.Model,
				Choices: []llm.ChatChoice{{Message: msg}},
			}, nil
		})
	engine := collabEngine(provider, roster, 2)

	log := engine.run(context.Background(), "question", testStage1(roster))

	for _, entry := range log {
		assert.NotEqual(t, EntryMessageDelivery, entry.Type)
	}
	// The sender still sees a success ack in its tool record.
	require.NotEmpty(t, log[0].ToolCalls)
	assert.Contains(t, log[0].ToolCalls[0].Result, `"status":"sent"`)

	// No history anywhere mentions a delivery.
	for _, call := range provider.Calls() {
		for _, msg := range call.Messages {
			assert.NotContains(t, msg.Content, "Message from")
		}
	}
}

// ============================================================================
// Turn Semantics
// ============================================================================

func TestCollaboration_FailedTurnSkipped(t *testing.T) {
	t.Parallel()

	roster := testRoster()[:2]
	provider := mocks.NewMockProvider().WithCompletionFunc(
		func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			if req.Model == "m-bob" {
				return nil, errors.New("model offline")
			}
			return &llm.ChatResponse{
				Model:   req.Model,
				Choices: []llm.ChatChoice{{Message: llm.NewAssistantMessage("fine here")}},
			}, nil
		})
	engine := collabEngine(provider, roster, 2)

	log := engine.run(context.Background(), "question", testStage1(roster))

	require.Len(t, log, 2)
	for i, entry := range log {
		assert.Equal(t, EntryTurn, entry.Type)
		assert.Equal(t, "Alice", entry.MemberName)
		assert.Equal(t, i+1, entry.Round)
	}
}

func TestCollaboration_ToolRecordsAppendToCallerHistory(t *testing.T) {
	t.Parallel()

	roster := testRoster()[:2]
	provider := mocks.NewMockProvider().WithCompletionFunc(
		func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			msg := llm.NewAssistantMessage("sending now")
			if req.Model == "m-alice" && isFirstRound(req) {
				msg.ToolCalls = []llm.ToolCall{sendMessageCall("call-1", "Bob", "ping")}
			}
			return &llm.ChatResponse{
				Model:   req.Model,
				Choices: []llm.ChatChoice{{Message: msg}},
			}, nil
		})
	engine := collabEngine(provider, roster, 2)

	engine.run(context.Background(), "question", testStage1(roster))

	var aliceRound2 *llm.ChatRequest
	for _, call := range provider.Calls() {
		if call.Model == "m-alice" && !isFirstRound(call) {
			aliceRound2 = call
		}
	}
	require.NotNil(t, aliceRound2)

	// Continuation prompt, then the replayed assistant turn and tool result.
	require.Len(t, aliceRound2.Messages, 4) // system + user + assistant + tool
	assert.Equal(t, llm.RoleSystem, aliceRound2.Messages[0].Role)
	assert.Equal(t, continuationPrompt, aliceRound2.Messages[1].Content)
	assert.Equal(t, llm.RoleAssistant, aliceRound2.Messages[2].Role)
	assert.Equal(t, "sending now", aliceRound2.Messages[2].Content)
	require.Len(t, aliceRound2.Messages[2].ToolCalls, 1)
	assert.Equal(t, llm.RoleTool, aliceRound2.Messages[3].Role)
	assert.Equal(t, "call-1", aliceRound2.Messages[3].ToolCallID)
	assert.Contains(t, aliceRound2.Messages[3].Content, `"status":"sent"`)
}

func TestCollaboration_MalformedToolArgsRecordedInBand(t *testing.T) {
	t.Parallel()

	roster := testRoster()[:1]
	provider := mocks.NewMockProvider().WithCompletionFunc(
		func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
			msg := llm.NewAssistantMessage("")
			if isFirstRound(req) {
				msg.ToolCalls = []llm.ToolCall{{
					ID:        "call-1",
					Name:      ToolSendMessage,
					Arguments: json.RawMessage(`{"to_member": `),
				}}
			}
			return &llm.ChatResponse{
				Model:   req.Model,
				Choices: []llm.ChatChoice{{Message: msg}},
			}, nil
		})
	engine := collabEngine(provider, roster, 1)

	log := engine.run(context.Background(), "question", testStage1(roster))

	require.Len(t, log, 1)
	require.Len(t, log[0].ToolCalls, 1)
	record := log[0].ToolCalls[0]
	assert.Equal(t, ToolSendMessage, record.Tool)
	assert.Empty(t, record.Arguments)
	assert.Contains(t, record.Result, "Missing required fields")
}

func TestCollaboration_ModelFailingMidRunLosesLaterTurns(t *testing.T) {
	t.Parallel()

	roster := testRoster()[:1]
	provider := mocks.NewSuccessProvider("still here").WithFailAfter(1)
	engine := collabEngine(provider, roster, 3)

	log := engine.run(context.Background(), "question", testStage1(roster))

	// Round 1 succeeded; rounds 2 and 3 failed and left no trace.
	require.Len(t, log, 1)
	assert.Equal(t, 1, log[0].Round)
	assert.Equal(t, "still here", log[0].Content)
	assert.Equal(t, 3, provider.CallCount())
}

func TestCollaboration_ZeroRounds(t *testing.T) {
	t.Parallel()

	roster := testRoster()
	provider := mocks.NewSuccessProvider("unused")
	engine := collabEngine(provider, roster, 0)

	log := engine.run(context.Background(), "question", testStage1(roster))

	assert.Empty(t, log)
	assert.Zero(t, provider.CallCount())
}

func TestCollaboration_SystemPromptNamesStage(t *testing.T) {
	t.Parallel()

	roster := testRoster()[:1]
	provider := mocks.NewSuccessProvider("reply")
	engine := collabEngine(provider, roster, 1)

	engine.run(context.Background(), "question", testStage1(roster))

	calls := provider.Calls()
	require.Len(t, calls, 1)
	require.NotEmpty(t, calls[0].Messages)
	system := calls[0].Messages[0]
	assert.Equal(t, llm.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "COLLABORATION stage")
	assert.Contains(t, system.Content, fmt.Sprintf("You are %s", roster[0].Name))
	require.Len(t, calls[0].Tools, 1)
	assert.Equal(t, ToolSendMessage, calls[0].Tools[0].Name)
}
