package council

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/councilflow/llm"
)

// ToolSendMessage is the only tool exposed to members during collaboration.
const ToolSendMessage = "send_message"

// ToolHandler executes one tool invocation on behalf of the named caller and
// returns the in-band result text.
type ToolHandler func(caller string, args map[string]any) string

// ToolRegistry maps tool names to handlers. Dispatch is by string name, so
// adding a tool is one Register call with its schema.
type ToolRegistry struct {
	handlers map[string]ToolHandler
	schemas  []llm.ToolSchema
	logger   *zap.Logger
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry(logger *zap.Logger) *ToolRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolRegistry{
		handlers: make(map[string]ToolHandler),
		logger:   logger.With(zap.String("component", "tool_registry")),
	}
}

// Register adds a tool. Registering the same name twice replaces the handler
// and keeps the first schema.
func (r *ToolRegistry) Register(schema llm.ToolSchema, handler ToolHandler) {
	if _, exists := r.handlers[schema.Name]; !exists {
		r.schemas = append(r.schemas, schema)
	}
	r.handlers[schema.Name] = handler
	r.logger.Debug("tool registered", zap.String("name", schema.Name))
}

// Schemas returns the tool schemas in registration order, for inclusion in
// chat requests.
func (r *ToolRegistry) Schemas() []llm.ToolSchema {
	return r.schemas
}

// ToolExecutor runs member-invoked tools. Every failure mode is returned
// in-band as structured error text; tool execution never aborts a run.
type ToolExecutor struct {
	registry *ToolRegistry
	logger   *zap.Logger
}

// NewToolExecutor creates an executor over the given registry.
func NewToolExecutor(registry *ToolRegistry, logger *zap.Logger) *ToolExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolExecutor{
		registry: registry,
		logger:   logger.With(zap.String("component", "tool_executor")),
	}
}

// Execute dispatches one tool call and returns its result text. An unknown
// tool name or a handler panic yields structured error text, not an error.
func (e *ToolExecutor) Execute(caller, toolName string, args map[string]any) (result string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool handler panicked", zap.String("tool", toolName), zap.Any("panic", r))
			result = toolError(fmt.Sprintf("Tool execution failed: %v", r))
		}
	}()

	handler, ok := e.registry.handlers[toolName]
	if !ok {
		return toolError(fmt.Sprintf("Unknown tool: %s", toolName))
	}
	return handler(caller, args)
}

func toolError(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}

// newSendMessageRegistry builds the collaboration tool set backed by the
// run's shared message queue.
func newSendMessageRegistry(queue *messageQueue, logger *zap.Logger) *ToolRegistry {
	registry := NewToolRegistry(logger)
	registry.Register(sendMessageSchema(), func(caller string, args map[string]any) string {
		toMember, _ := args["to_member"].(string)
		message, _ := args["message"].(string)
		if toMember == "" || message == "" {
			return toolError("Missing required fields: to_member, message")
		}

		queue.push(caller, toMember, message)

		ack, _ := json.Marshal(map[string]string{
			"status": "sent",
			"from":   caller,
			"to":     toMember,
		})
		return string(ack)
	})
	return registry
}

func sendMessageSchema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        ToolSendMessage,
		Description: "Send a message to another council member to share insights or ask for their perspective",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"to_member": {
					"type": "string",
					"description": "Name of the council member to send message to (e.g., 'Alice', 'Bob', 'Charlie')"
				},
				"message": {
					"type": "string",
					"description": "The message content - share an insight, ask a question, or build on their response"
				}
			},
			"required": ["to_member", "message"]
		}`),
	}
}
