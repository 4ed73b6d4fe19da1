package council

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/councilflow/llm"
)

// synthesisFailureText is the fixed sentinel when the chairman call fails.
const synthesisFailureText = "Error: Unable to generate final synthesis."

// synthesizer performs the stage-4 chairman pass: one tool-free call over the
// full cross-stage transcript.
type synthesizer struct {
	client   *Client
	chairman string
	logger   *zap.Logger
}

func newSynthesizer(client *Client, chairman string, logger *zap.Logger) *synthesizer {
	return &synthesizer{
		client:   client,
		chairman: chairman,
		logger:   logger.With(zap.String("component", "synthesis")),
	}
}

// run issues the chairman call. A failed call degrades to the fixed sentinel
// response; the run still completes structurally.
func (s *synthesizer) run(ctx context.Context, userQuery string, stage1 []Stage1Result, stage2 []LogEntry, stage3 []RankingResult) SynthesisResult {
	prompt := buildChairmanPrompt(userQuery, stage1, stage2, stage3)

	reply := s.client.query(ctx, s.chairman, []llm.Message{llm.NewUserMessage(prompt)}, queryOptions{})
	if reply == nil {
		s.logger.Warn("chairman synthesis failed", zap.String("model", s.chairman))
		return SynthesisResult{Model: s.chairman, Response: synthesisFailureText}
	}

	return SynthesisResult{Model: s.chairman, Response: reply.Content}
}
