package council

import (
	"fmt"
	"strings"
)

// Prompt text in this file is part of the protocol: ranking extraction and
// round-boundary delivery both depend on models following these instructions,
// so changes here must stay in sync with ParseRanking.

const continuationPrompt = "Continue the discussion if you have more to contribute."

const stage1Suffix = "\n\nIMPORTANT: Keep your response to ONE paragraph only (4 sentences). Be concise and direct."

func buildStage1Prompt(userQuery string) string {
	return userQuery + stage1Suffix
}

// buildIdentityPrompt renders the persona system prompt attached to every
// fan-out call.
func buildIdentityPrompt(m Member) string {
	return fmt.Sprintf(`You are %s, a council member in a multi-model deliberation system.

Role: %s
Personality: %s
Traits: %s

You collaborate with other models to answer questions. Stay in character and leverage your unique perspective.`,
		m.Name, m.Role, m.Personality, strings.Join(m.Traits, ", "))
}

// buildCollabPrompt renders the stage-2 system prompt for one member.
func buildCollabPrompt(m Member) string {
	return fmt.Sprintf(`You are %s, a council member in a multi-model deliberation system.

Role: %s
Personality: %s
Traits: %s

You are now in the COLLABORATION stage. You've seen everyone's initial responses to the user's question.
Your goal is to engage with other council members to refine and improve the collective understanding.

Use the send_message tool to:
- Share insights or critiques about other members' responses
- Ask clarifying questions
- Build on ideas you find compelling
- Point out potential issues or gaps

Be constructive and stay in character. Limit your messages to 2-3 sentences each.`,
		m.Name, m.Role, m.Personality, strings.Join(m.Traits, ", "))
}

// buildInitialContext renders the round-0 collaboration input: the original
// question plus the full stage-1 transcript.
func buildInitialContext(userQuery string, stage1 []Stage1Result) string {
	responses := make([]string, 0, len(stage1))
	for _, r := range stage1 {
		responses = append(responses, fmt.Sprintf("%s (%s):\n%s", r.MemberName, r.Role, r.Response))
	}

	return fmt.Sprintf(`Original Question: %s

Here are all the initial responses from the council:

%s

Review these responses and decide if you want to engage with other council members. You can use the send_message tool to communicate with them.`,
		userQuery, strings.Join(responses, "\n\n"))
}

// buildRankingPrompt renders the stage-3 evaluation prompt over the
// anonymized responses. Labels are assigned in stage-1 result order.
func buildRankingPrompt(userQuery string, labels []string, stage1 []Stage1Result) string {
	responses := make([]string, 0, len(stage1))
	for i, r := range stage1 {
		responses = append(responses, fmt.Sprintf("%s:\n%s", labels[i], r.Response))
	}

	return fmt.Sprintf(`You are evaluating different responses to the following question:

Question: %s

Here are the responses from different models (anonymized):

%s

Your task:
1. First, evaluate each response individually. For each response, explain what it does well and what it does poorly.
2. Then, at the very end of your response, provide a final ranking.

IMPORTANT: Keep your evaluation concise - use ONE brief paragraph per response (2-3 sentences each).

IMPORTANT: Your final ranking MUST be formatted EXACTLY as follows:
- Start with the line "FINAL RANKING:" (all caps, with colon)
- Then list the responses from best to worst as a numbered list
- Each line should be: number, period, space, then ONLY the response label (e.g., "1. Response A")
- Do not add any other text or explanations in the ranking section

Example of the correct format for your ENTIRE response:

Response A provides good detail on X but misses Y...
Response B is accurate but lacks depth on Z...
Response C offers the most comprehensive answer...

FINAL RANKING:
1. Response C
2. Response A
3. Response B

Now provide your evaluation and ranking:`,
		userQuery, strings.Join(responses, "\n\n"))
}

// buildStage2Narrative walks the collaboration log in order and renders one
// line per delivered message and one line per turn with non-empty content.
// Tool-call-only turns with empty content emit nothing.
func buildStage2Narrative(log []LogEntry) string {
	lines := make([]string, 0, len(log))
	for _, entry := range log {
		switch {
		case entry.Type == EntryMessageDelivery:
			lines = append(lines, fmt.Sprintf("%s → %s: %s", entry.From, entry.To, entry.Message))
		case entry.Content != "":
			lines = append(lines, fmt.Sprintf("%s: %s", entry.MemberName, entry.Content))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n\nSTAGE 2 - Collaboration:\n" + strings.Join(lines, "\n")
}

// buildChairmanPrompt renders the stage-4 synthesis prompt embedding the full
// cross-stage transcript.
func buildChairmanPrompt(userQuery string, stage1 []Stage1Result, stage2 []LogEntry, stage3 []RankingResult) string {
	stage1Lines := make([]string, 0, len(stage1))
	for _, r := range stage1 {
		stage1Lines = append(stage1Lines, fmt.Sprintf("%s (%s):\n%s", r.MemberName, r.Role, r.Response))
	}

	stage3Lines := make([]string, 0, len(stage3))
	for _, r := range stage3 {
		stage3Lines = append(stage3Lines, fmt.Sprintf("%s's Evaluation:\n%s", r.MemberName, r.Ranking))
	}

	return fmt.Sprintf(`You are the Chairman of an LLM Council. Multiple AI models with different personalities and roles have provided responses to a user's question, collaborated through discussion, and then ranked each other's responses.

Original Question: %s

STAGE 1 - Initial Responses:
%s
%s

STAGE 3 - Peer Rankings:
%s

Your task as Chairman is to synthesize all of this information into a single, comprehensive, accurate answer to the user's original question. Consider:
- The individual responses and their insights
- The collaborative discussion and refinements made
- The peer rankings and what they reveal about response quality
- Any patterns of agreement or disagreement

IMPORTANT: Keep your final answer to 2-3 paragraphs maximum. Be clear, concise, and well-reasoned.

Provide your final answer that represents the council's collective wisdom:`,
		userQuery, strings.Join(stage1Lines, "\n\n"), buildStage2Narrative(stage2), strings.Join(stage3Lines, "\n\n"))
}

// buildTitlePrompt renders the auxiliary conversation-title prompt.
func buildTitlePrompt(userQuery string) string {
	return fmt.Sprintf(`Generate a very short title (3-5 words maximum) that summarizes the following question.
The title should be concise and descriptive. Do not use quotes or punctuation in the title.

Question: %s

Title:`, userQuery)
}
