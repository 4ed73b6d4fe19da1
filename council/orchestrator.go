package council

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/councilflow/internal/metrics"
	"github.com/BaSui01/councilflow/llm"
)

// emptyCouncilText is the fixed user-visible payload when no member answered
// stage 1.
const emptyCouncilText = "All models failed to respond. Please try again."

// defaultTitle is the fallback when title generation fails.
const defaultTitle = "New Conversation"

// Config holds the orchestration parameters for one Council.
type Config struct {
	// Chairman is the model performing the final synthesis.
	Chairman string `json:"chairman" yaml:"chairman"`
	// TitleModel handles the lightweight conversation-title call.
	TitleModel string `json:"title_model" yaml:"title_model"`
	// MaxRounds bounds the collaboration stage.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds"`
	// MaxTokens caps every model response.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`
	// QueryTimeout bounds each individual model call.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`
	// TitleTimeout bounds the title call.
	TitleTimeout time.Duration `json:"title_timeout" yaml:"title_timeout"`
}

// DefaultConfig returns the standard orchestration parameters.
func DefaultConfig() Config {
	return Config{
		Chairman:     "qwen/qwen3-1.7b",
		TitleModel:   "google/gemini-2.5-flash",
		MaxRounds:    2,
		MaxTokens:    700,
		QueryTimeout: 120 * time.Second,
		TitleTimeout: 30 * time.Second,
	}
}

// Council sequences the four deliberation stages over a fixed roster. It is
// safe to reuse across runs; all per-run state (message queue, histories,
// labels) is scoped to a single Run call.
type Council struct {
	client    *Client
	roster    Roster
	cfg       Config
	collector *metrics.Collector
	logger    *zap.Logger
}

// Option configures a Council beyond its required dependencies.
type Option func(*Council)

// WithCollector attaches a metrics collector.
func WithCollector(collector *metrics.Collector) Option {
	return func(c *Council) { c.collector = collector }
}

// New creates a Council over the given provider and roster. Zero-valued
// config fields fall back to DefaultConfig.
func New(provider llm.Provider, roster Roster, cfg Config, logger *zap.Logger, opts ...Option) *Council {
	if logger == nil {
		logger = zap.NewNop()
	}

	defaults := DefaultConfig()
	if cfg.Chairman == "" {
		cfg.Chairman = defaults.Chairman
	}
	if cfg.TitleModel == "" {
		cfg.TitleModel = defaults.TitleModel
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = defaults.MaxRounds
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = defaults.QueryTimeout
	}
	if cfg.TitleTimeout == 0 {
		cfg.TitleTimeout = defaults.TitleTimeout
	}

	c := &Council{
		roster: roster,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "council")),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = newClient(provider, cfg.MaxTokens, cfg.QueryTimeout, c.collector, logger)
	return c
}

// Roster returns the configured members in order.
func (c *Council) Roster() Roster {
	return c.roster
}

// Run executes the full deliberation for one user question. It never returns
// an error: every failure degrades to an omission or a sentinel payload
// inside the Result.
func (c *Council) Run(ctx context.Context, userQuery string) *Result {
	start := time.Now()

	stage1 := c.collectResponses(ctx, userQuery)
	if len(stage1) == 0 {
		c.logger.Warn("no council member responded",
			zap.Strings("members", c.roster.Names()))
		c.collector.RunCompleted("empty_council", time.Since(start))
		return &Result{
			Stage1: []Stage1Result{},
			Stage2: []LogEntry{},
			Stage3: []RankingResult{},
			Stage4: SynthesisResult{Model: "error", Response: emptyCouncilText},
		}
	}

	stage2 := c.collaborate(ctx, userQuery, stage1)
	stage3, labelToMember := c.collectRankings(ctx, userQuery, stage1)
	aggregate := AggregateRankings(stage3, labelToMember)
	stage4 := c.synthesize(ctx, userQuery, stage1, stage2, stage3)

	c.collector.RunCompleted("completed", time.Since(start))
	c.logger.Info("council run completed",
		zap.Int("stage1_responses", len(stage1)),
		zap.Int("stage2_entries", len(stage2)),
		zap.Int("stage3_rankings", len(stage3)),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Stage1: stage1,
		Stage2: stage2,
		Stage3: stage3,
		Stage4: stage4,
		Metadata: Metadata{
			LabelToMember:     labelToMember,
			AggregateRankings: aggregate,
		},
	}
}

// collectResponses runs stage 1: every member answers the question
// individually and concurrently. Failed members are absent from the result,
// which preserves roster order.
func (c *Council) collectResponses(ctx context.Context, userQuery string) []Stage1Result {
	defer c.observeStage("individual", time.Now())

	msgs := []llm.Message{llm.NewUserMessage(buildStage1Prompt(userQuery))}
	replies := c.client.fanOut(ctx, c.roster, msgs)

	results := make([]Stage1Result, 0, len(c.roster))
	for i, m := range c.roster {
		if replies[i] == nil {
			continue
		}
		results = append(results, Stage1Result{
			MemberID:   m.ID,
			MemberName: m.Name,
			Model:      m.Model,
			Role:       m.Role,
			Response:   replies[i].Content,
		})
	}
	return results
}

func (c *Council) collaborate(ctx context.Context, userQuery string, stage1 []Stage1Result) []LogEntry {
	defer c.observeStage("collaboration", time.Now())

	engine := newCollaborationEngine(c.client, c.roster, c.cfg.MaxRounds, c.collector, c.logger)
	return engine.run(ctx, userQuery, stage1)
}

// collectRankings runs stage 3: anonymized peer evaluation. Labels are
// assigned in stage-1 result order and stay fixed for the run.
func (c *Council) collectRankings(ctx context.Context, userQuery string, stage1 []Stage1Result) ([]RankingResult, map[string]string) {
	defer c.observeStage("ranking", time.Now())

	labels := make([]string, len(stage1))
	labelToMember := make(map[string]string, len(stage1))
	for i, r := range stage1 {
		labels[i] = fmt.Sprintf("Response %c", rune('A'+i))
		labelToMember[labels[i]] = r.MemberName
	}

	msgs := []llm.Message{llm.NewUserMessage(buildRankingPrompt(userQuery, labels, stage1))}
	replies := c.client.fanOut(ctx, c.roster, msgs)

	results := make([]RankingResult, 0, len(c.roster))
	for i, m := range c.roster {
		if replies[i] == nil {
			continue
		}
		results = append(results, RankingResult{
			MemberID:      m.ID,
			MemberName:    m.Name,
			Model:         m.Model,
			Ranking:       replies[i].Content,
			ParsedRanking: ParseRanking(replies[i].Content),
		})
	}
	return results, labelToMember
}

func (c *Council) synthesize(ctx context.Context, userQuery string, stage1 []Stage1Result, stage2 []LogEntry, stage3 []RankingResult) SynthesisResult {
	defer c.observeStage("synthesis", time.Now())

	return newSynthesizer(c.client, c.cfg.Chairman, c.logger).run(ctx, userQuery, stage1, stage2, stage3)
}

// Title generates a short conversation title from the first user message
// using the lightweight title model. Any failure falls back to a generic
// title.
func (c *Council) Title(ctx context.Context, userQuery string) string {
	msgs := []llm.Message{llm.NewUserMessage(buildTitlePrompt(userQuery))}
	reply := c.client.query(ctx, c.cfg.TitleModel, msgs, queryOptions{timeout: c.cfg.TitleTimeout})
	if reply == nil {
		return defaultTitle
	}

	title := strings.TrimSpace(reply.Content)
	title = strings.Trim(title, `"'`)
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:47]) + "..."
	}
	return title
}

func (c *Council) observeStage(stage string, start time.Time) {
	c.collector.ObserveStage(stage, time.Since(start))
}
