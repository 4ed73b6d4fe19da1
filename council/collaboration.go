package council

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/councilflow/internal/metrics"
	"github.com/BaSui01/councilflow/llm"
)

// collaborationEngine drives the stage-2 round/turn state machine. Each round
// visits every roster member exactly once in roster order; turns execute
// strictly sequentially so members observe earlier turns' effects
// deterministically.
type collaborationEngine struct {
	client    *Client
	roster    Roster
	maxRounds int
	collector *metrics.Collector
	logger    *zap.Logger
}

func newCollaborationEngine(client *Client, roster Roster, maxRounds int, collector *metrics.Collector, logger *zap.Logger) *collaborationEngine {
	return &collaborationEngine{
		client:    client,
		roster:    roster,
		maxRounds: maxRounds,
		collector: collector,
		logger:    logger.With(zap.String("component", "collaboration")),
	}
}

// run executes the collaboration rounds and returns the append-only log.
// The message queue and per-member histories live exactly as long as this
// call.
func (e *collaborationEngine) run(ctx context.Context, userQuery string, stage1 []Stage1Result) []LogEntry {
	queue := newMessageQueue()
	executor := NewToolExecutor(newSendMessageRegistry(queue, e.logger), e.logger)
	tools := executor.registry.Schemas()

	histories := make(map[string][]llm.Message, len(e.roster))
	log := make([]LogEntry, 0)
	initialContext := buildInitialContext(userQuery, stage1)

	for round := 0; round < e.maxRounds; round++ {
		for _, m := range e.roster {
			var msgs []llm.Message
			if round == 0 {
				msgs = append(msgs, llm.NewUserMessage(initialContext))
			} else {
				msgs = append(msgs, llm.NewUserMessage(continuationPrompt))
			}
			// Replay the member's own accumulated history verbatim.
			msgs = append(msgs, histories[m.ID]...)

			reply := e.client.query(ctx, m.Model, msgs, queryOptions{
				systemPrompt: buildCollabPrompt(m),
				tools:        tools,
			})
			if reply == nil {
				// Failed turn: skipped entirely, round continues.
				e.logger.Debug("turn skipped",
					zap.Int("round", round+1),
					zap.String("member", m.Name))
				continue
			}

			entry := LogEntry{
				Type:       EntryTurn,
				Round:      round + 1,
				MemberID:   m.ID,
				MemberName: m.Name,
				Content:    reply.Content,
				ToolCalls:  make([]ToolCallRecord, 0, len(reply.ToolCalls)),
			}

			for _, call := range reply.ToolCalls {
				args := decodeToolArgs(call.Arguments)
				result := executor.Execute(m.Name, call.Name, args)

				entry.ToolCalls = append(entry.ToolCalls, ToolCallRecord{
					Tool:      call.Name,
					Arguments: args,
					Result:    result,
				})

				// Both records go to the caller's own history, never the
				// recipient's.
				histories[m.ID] = append(histories[m.ID],
					llm.Message{
						Role:      llm.RoleAssistant,
						Content:   reply.Content,
						ToolCalls: reply.ToolCalls,
					},
					llm.NewToolMessage(call.ID, call.Name, result),
				)
			}

			log = append(log, entry)
		}

		// Round boundary: deliver queued messages in FIFO order. A message
		// sent during this round becomes visible to its recipient at the
		// start of its next turn, never earlier.
		for _, msg := range queue.drain() {
			recipient, ok := e.roster.ByName(msg.To)
			if !ok {
				e.collector.MessageDropped()
				e.logger.Debug("message recipient not found",
					zap.String("from", msg.From),
					zap.String("to", msg.To))
				continue
			}

			histories[recipient.ID] = append(histories[recipient.ID],
				llm.NewUserMessage(fmt.Sprintf("Message from %s: %s", msg.From, msg.Message)))

			log = append(log, LogEntry{
				Type:    EntryMessageDelivery,
				Round:   round + 1,
				From:    msg.From,
				To:      msg.To,
				Message: msg.Message,
			})
			e.collector.MessageDelivered()
		}
	}

	return log
}

// decodeToolArgs parses a tool-call argument payload. Malformed JSON yields
// an empty argument map, never a turn failure.
func decodeToolArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	args := map[string]any{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]any{}
	}
	return args
}
