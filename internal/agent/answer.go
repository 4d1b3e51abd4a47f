package agent

// BlockKind identifies the type of a reply content block.
type BlockKind string

const (
	BlockText    BlockKind = "text"
	BlockToolUse BlockKind = "tool_use"
	BlockOther   BlockKind = "other"
)

// ContentBlock is one segment of a model reply. Only text blocks carry Text.
type ContentBlock struct {
	Kind BlockKind
	Text string
}

// Usage is the token accounting reported by the provider, when it reports any.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Answer is a model reply.
type Answer struct {
	Content    []ContentBlock
	StopReason string
	Usage      Usage
}

// TextAnswer builds a reply with a single text block.
func TextAnswer(text string) Answer {
	return Answer{Content: []ContentBlock{{Kind: BlockText, Text: text}}}
}

// Text returns the first text block, or "" if the reply has none.
func (a Answer) Text() string {
	for _, b := range a.Content {
		if b.Kind == BlockText {
			return b.Text
		}
	}
	return ""
}
