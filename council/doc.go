// Package council implements the four-stage deliberation protocol that
// drives several independently configured model personas to one consolidated
// answer: individual responses, turn-based collaboration through message
// passing and tool calls, anonymized peer ranking, and a final chairman
// synthesis.
//
// The package holds no state across runs. Model transport is abstracted
// behind llm.Provider; every transport failure is observed by the core as an
// absent reply and degrades to an omission or a data-level sentinel, never an
// error crossing the orchestrator boundary.
package council
