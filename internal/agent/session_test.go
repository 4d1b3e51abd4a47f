package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camcheck/internal/reference"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

const testModelID = "amazon.nova-lite-v1:0"

func testConversation() Conversation {
	return NewConversation(testModelID, DefaultInstruction, reference.FromText(`[{"model":"EOS R5"}]`))
}

// recordingModel remembers every call and replies with a fixed answer.
type recordingModel struct {
	mu      sync.Mutex
	queries []string
	convs   []Conversation
	answer  Answer
	err     error
}

func (m *recordingModel) Invoke(_ context.Context, conv Conversation, query string) (Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	m.convs = append(m.convs, conv)
	return m.answer, m.err
}

func TestNewConversation_Layout(t *testing.T) {
	conv := testConversation()
	msgs := conv.Messages()

	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, DefaultInstruction, msgs[0].Text)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, ReferencePreamble+`[{"model":"EOS R5"}]`, msgs[1].Text)
	assert.Contains(t, msgs[1].Text, "the list of Elgato Tested Devices")
	assert.Equal(t, testModelID, conv.ModelID())
}

func TestConversation_IsImmutable(t *testing.T) {
	conv := testConversation()

	msgs := conv.Messages()
	msgs[0].Text = "tampered"
	_ = conv.WithQuery("Canon R5")

	assert.Equal(t, DefaultInstruction, conv.Messages()[0].Text)
	assert.Len(t, conv.Messages(), 2)
}

func TestConversation_WithQuery(t *testing.T) {
	msgs := testConversation().WithQuery("Sony A7 IV")
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{Role: RoleUser, Text: "Sony A7 IV"}, msgs[2])
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(nil, testConversation())
	assert.Error(t, err)

	_, err = NewSession(&recordingModel{}, NewConversation("", DefaultInstruction, reference.FromText("x")))
	assert.Error(t, err)
}

func TestSession_AskForwardsQueryVerbatim(t *testing.T) {
	model := &recordingModel{answer: TextAnswer("Yes, the Canon EOS R5 supports clean HDMI.")}
	sess, err := NewSession(model, testConversation(), WithLogger(nopLogger{}))
	require.NoError(t, err)

	answer, err := sess.Ask(context.Background(), "  Canon R5  ")
	require.NoError(t, err)
	assert.Equal(t, "Yes, the Canon EOS R5 supports clean HDMI.", answer.Text())
	assert.Equal(t, []string{"  Canon R5  "}, model.queries)
}

func TestSession_ReusesSameBaseContext(t *testing.T) {
	model := &recordingModel{answer: TextAnswer("ok")}
	sess, err := NewSession(model, testConversation(), WithLogger(nopLogger{}))
	require.NoError(t, err)

	for _, q := range []string{"Canon R5", "GoPro HERO12", "Nikon Z6"} {
		_, err := sess.Ask(context.Background(), q)
		require.NoError(t, err)
	}

	require.Len(t, model.convs, 3)
	for _, conv := range model.convs {
		assert.Equal(t, testConversation().Messages(), conv.Messages())
	}
}

func TestSession_PropagatesModelError(t *testing.T) {
	remote := errors.New("throttled")
	sess, err := NewSession(&recordingModel{err: remote}, testConversation(), WithLogger(nopLogger{}))
	require.NoError(t, err)

	_, err = sess.Ask(context.Background(), "Canon R5")
	require.Error(t, err)
	assert.ErrorIs(t, err, remote)
}

func TestSession_ConcurrentAsks(t *testing.T) {
	model := &recordingModel{answer: TextAnswer("ok")}
	sess, err := NewSession(model, testConversation(), WithLogger(nopLogger{}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sess.Ask(context.Background(), "Canon R5")
		}()
	}
	wg.Wait()
	assert.Len(t, model.queries, 16)
}

func TestModelFunc(t *testing.T) {
	var got string
	m := ModelFunc(func(_ context.Context, _ Conversation, q string) (Answer, error) {
		got = q
		return TextAnswer("done"), nil
	})
	answer, err := m.Invoke(context.Background(), testConversation(), "q")
	require.NoError(t, err)
	assert.Equal(t, "q", got)
	assert.Equal(t, "done", answer.Text())
}

func TestAnswer_Text(t *testing.T) {
	assert.Equal(t, "", Answer{}.Text())
	assert.Equal(t, "", Answer{Content: []ContentBlock{{Kind: BlockToolUse}}}.Text())
	assert.Equal(t, "first", Answer{Content: []ContentBlock{
		{Kind: BlockOther},
		{Kind: BlockText, Text: "first"},
		{Kind: BlockText, Text: "second"},
	}}.Text())
}
