package council

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/councilflow/internal/metrics"
	"github.com/BaSui01/councilflow/llm"
)

// Reply is the shape of a model answer the deliberation core consumes. A nil
// *Reply is the only failure signal the core ever observes from transport.
type Reply struct {
	Content   string
	ToolCalls []llm.ToolCall
}

type queryOptions struct {
	systemPrompt string
	tools        []llm.ToolSchema
	timeout      time.Duration
}

// Client adapts an llm.Provider to the council's degrade-to-nil call model.
// Each call carries its own timeout and cancellation; a timeout fails only
// that one call, and no retries happen anywhere.
type Client struct {
	provider  llm.Provider
	maxTokens int
	timeout   time.Duration
	collector *metrics.Collector
	logger    *zap.Logger
}

func newClient(provider llm.Provider, maxTokens int, timeout time.Duration, collector *metrics.Collector, logger *zap.Logger) *Client {
	return &Client{
		provider:  provider,
		maxTokens: maxTokens,
		timeout:   timeout,
		collector: collector,
		logger:    logger.With(zap.String("component", "council_client")),
	}
}

// query performs one model call. Every transport or protocol failure is
// swallowed into a nil reply.
func (c *Client) query(ctx context.Context, model string, msgs []llm.Message, opts queryOptions) *Reply {
	timeout := opts.timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqMsgs := msgs
	if opts.systemPrompt != "" {
		reqMsgs = append([]llm.Message{llm.NewSystemMessage(opts.systemPrompt)}, msgs...)
	}

	resp, err := c.provider.Completion(ctx, &llm.ChatRequest{
		Model:     model,
		Messages:  reqMsgs,
		MaxTokens: c.maxTokens,
		Tools:     opts.tools,
		Timeout:   timeout,
	})
	if err != nil {
		c.collector.ModelCall(model, "failed")
		c.logger.Warn("model call failed", zap.String("model", model), zap.Error(err))
		return nil
	}

	choice, err := llm.FirstChoice(resp)
	if err != nil {
		c.collector.ModelCall(model, "failed")
		c.logger.Warn("model returned no choices", zap.String("model", model))
		return nil
	}

	c.collector.ModelCall(model, "ok")
	return &Reply{Content: choice.Message.Content, ToolCalls: choice.Message.ToolCalls}
}

// fanOut issues one call per roster member concurrently, each carrying the
// member's identity prompt, and waits for every call to settle. The returned
// slice preserves roster order; a failed or timed-out member is a nil entry.
func (c *Client) fanOut(ctx context.Context, roster Roster, msgs []llm.Message) []*Reply {
	replies := make([]*Reply, len(roster))

	var g errgroup.Group
	for i, m := range roster {
		i, m := i, m
		g.Go(func() error {
			replies[i] = c.query(ctx, m.Model, msgs, queryOptions{systemPrompt: buildIdentityPrompt(m)})
			return nil
		})
	}
	// Workers never return errors; failures surface as nil replies.
	_ = g.Wait()

	return replies
}
