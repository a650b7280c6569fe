package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Outcome is the decoded result of one model turn: either a final answer or
// a request to execute a declared capability. Decoding up front makes the
// malformed-response failure mode an explicit case instead of an ad hoc
// optional-field inspection at each call site.
type Outcome interface {
	isOutcome()
}

// FinalText is a turn that ends the protocol with an answer
type FinalText struct {
	Text string
}

// ToolRequest is a turn asking the host to execute a capability
type ToolRequest struct {
	CallID string
	Name   string
	Args   json.RawMessage
}

func (FinalText) isOutcome()   {}
func (ToolRequest) isOutcome() {}

// DecodeOutcome classifies a model response under this policy.
// A call to an undeclared capability is treated as if absent (logged, fall
// through to text). A response with neither a recognized call nor text is an
// error; an empty answer must never be returned silently.
func (p ConversationPolicy) DecodeOutcome(resp *Response) (Outcome, error) {
	for _, call := range resp.ToolCalls {
		name := call.Function.Name
		if !p.knowsTool(name) {
			log.Printf("⚠️ [LLM] Model requested undeclared tool %q, ignoring", name)
			continue
		}
		return ToolRequest{
			CallID: call.ID,
			Name:   name,
			Args:   json.RawMessage(call.Function.Arguments),
		}, nil
	}

	if strings.TrimSpace(resp.Content) != "" {
		return FinalText{Text: resp.Content}, nil
	}

	return nil, fmt.Errorf("malformed model response: no recognized tool call and no text content")
}
