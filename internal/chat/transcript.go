package chat

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/technosupport/ts-console/internal/reply"
)

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is one chat bubble. Messages are append-only.
type Message struct {
	ID                 string    `json:"id"`
	Role               Role      `json:"role"`
	Content            string    `json:"content"`
	Timestamp          string    `json:"timestamp"` // display time, HH:MM
	CreatedAt          time.Time `json:"created_at"`
	QuickActions       []string  `json:"quick_actions,omitempty"`
	CCTVRecommendation bool      `json:"is_cctv_recommendation,omitempty"`
}

// Option decorates a message before it is appended.
type Option func(*Message)

func WithQuickActions(actions ...string) Option {
	return func(m *Message) { m.QuickActions = actions }
}

// FromReply copies the reply's actions and flags.
func FromReply(r reply.Reply) Option {
	return func(m *Message) {
		m.QuickActions = r.QuickActions
		m.CCTVRecommendation = r.CCTVRecommendation
	}
}

// Transcript is the ordered list of messages for one console session.
type Transcript struct {
	Messages []Message `json:"messages"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns role-prefixed, strictly increasing ids even within one millisecond.
func NewID(role Role, now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return string(role) + "-" + ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// Add appends a message stamped with now and returns it.
func (t *Transcript) Add(role Role, content string, now time.Time, opts ...Option) Message {
	m := Message{
		ID:        NewID(role, now),
		Role:      role,
		Content:   content,
		Timestamp: now.Format("15:04"),
		CreatedAt: now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	t.Messages = append(t.Messages, m)
	return m
}

func (t *Transcript) Len() int {
	return len(t.Messages)
}

// Last returns the newest message, if any.
func (t *Transcript) Last() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}
