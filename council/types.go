package council

// Stage1Result is one member's individual answer from the first stage.
type Stage1Result struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Model      string `json:"model"`
	Role       string `json:"role"`
	Response   string `json:"response"`
}

// EntryType discriminates collaboration log entries.
type EntryType string

const (
	// EntryTurn records one member's collaboration turn.
	EntryTurn EntryType = "turn"
	// EntryMessageDelivery records a queued message reaching its recipient
	// at a round boundary.
	EntryMessageDelivery EntryType = "message_delivery"
)

// ToolCallRecord captures one executed tool invocation inside a turn.
type ToolCallRecord struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"result"`
}

// LogEntry is one record in the append-only stage-2 collaboration log.
// Type selects which fields are meaningful: turn entries carry the member
// fields, content and tool calls; delivery entries carry from/to/message.
type LogEntry struct {
	Type       EntryType        `json:"type"`
	Round      int              `json:"round"`
	MemberID   string           `json:"member_id,omitempty"`
	MemberName string           `json:"member_name,omitempty"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []ToolCallRecord `json:"tool_calls,omitempty"`
	From       string           `json:"from,omitempty"`
	To         string           `json:"to,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// RankingResult is one member's stage-3 evaluation: the full raw text plus
// the label order extracted from it. ParsedRanking may contain duplicate or
// missing labels; consumers must never assume a permutation.
type RankingResult struct {
	MemberID      string   `json:"member_id"`
	MemberName    string   `json:"member_name"`
	Model         string   `json:"model"`
	Ranking       string   `json:"ranking"`
	ParsedRanking []string `json:"parsed_ranking"`
}

// AggregateEntry is one row of the cross-member rank aggregation.
type AggregateEntry struct {
	Model         string  `json:"model"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

// SynthesisResult is the chairman's stage-4 output.
type SynthesisResult struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Metadata carries the label assignment and aggregate rankings for one run.
type Metadata struct {
	LabelToMember     map[string]string `json:"label_to_member,omitempty"`
	AggregateRankings []AggregateEntry  `json:"aggregate_rankings,omitempty"`
}

// Result is the five-part outcome of one full council run; it is the sole
// externally observable output of the orchestrator.
type Result struct {
	Stage1   []Stage1Result  `json:"stage1"`
	Stage2   []LogEntry      `json:"stage2"`
	Stage3   []RankingResult `json:"stage3"`
	Stage4   SynthesisResult `json:"stage4"`
	Metadata Metadata        `json:"metadata"`
}
