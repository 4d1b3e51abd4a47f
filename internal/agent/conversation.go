// Package agent holds the conversation sent to the language model and the
// session that answers camera questions against it. The model itself sits
// behind the Model interface so it can be swapped for a stub.
package agent

import "camcheck/internal/reference"

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultInstruction tells the model what it is for and how to refer to the
// reference data.
const DefaultInstruction = `You are an assistant that helps users identify whether a given camera model supports realtime HDMI output. You use a list provided by Elgato, a company that makes devices for streamers, to check.

The user will provide one or more camera models or brands and you will report back on whether they support HDMI output and any extra detail that might be relevant.`

// ReferencePreamble prefixes the reference list in the data message.
const ReferencePreamble = "Here is the list of cameras that Elgato has tested. When referring to results from the list, refer to the list as 'the list of Elgato Tested Devices': "

// Message is one role-tagged turn.
type Message struct {
	Role Role
	Text string
}

// Conversation is the fixed context every query is appended to: the model
// id, the instruction and the data message. It is never modified after
// NewConversation returns.
type Conversation struct {
	modelID  string
	messages []Message
}

// NewConversation builds the two-message base context.
func NewConversation(modelID, instruction string, ref reference.List) Conversation {
	return Conversation{
		modelID: modelID,
		messages: []Message{
			{Role: RoleSystem, Text: instruction},
			{Role: RoleUser, Text: ReferencePreamble + ref.Text()},
		},
	}
}

// ModelID is the provider-specific model identifier.
func (c Conversation) ModelID() string { return c.modelID }

// Messages returns a copy of the base context.
func (c Conversation) Messages() []Message {
	return append([]Message(nil), c.messages...)
}

// WithQuery returns the base context followed by the user's query, leaving
// the conversation itself untouched.
func (c Conversation) WithQuery(query string) []Message {
	out := make([]Message, 0, len(c.messages)+1)
	out = append(out, c.messages...)
	return append(out, Message{Role: RoleUser, Text: query})
}
