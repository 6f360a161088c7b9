package conversations

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/sarthi-rx/server/internal/agent/model"
)

// MessagesManager renders session history into prompt context.
type MessagesManager struct {
	contextTurns int
	maxHistory   int
}

func NewMessagesManager(config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		contextTurns: config.ContextTurns,
		maxHistory:   config.MaxHistory,
	}
}

// BuildContext renders the last contextTurns messages as a transcript. It
// returns an empty string when there is no history.
func (cm *MessagesManager) BuildContext(messages []*schema.Message) string {
	recent := trimTail(messages, cm.contextTurns)
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<conversation_context>\n")
	for _, msg := range recent {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			b.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}
	b.WriteString("</conversation_context>")
	return b.String()
}

// Record appends one exchange to the session, bounded by the history limit.
func (cm *MessagesManager) Record(s *model.Session, user, assistant string) {
	s.AppendExchange(user, assistant, cm.maxHistory)
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
