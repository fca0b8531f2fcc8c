package event

// OrganizationMessageEvent is a message sent by a member inside an organization.
type OrganizationMessageEvent interface {
	MessageEvent
	SourceEvent
	AuthorEvent
}

// Standard keys. Platform adapters declare their own keys with these as
// parents so generic listeners keep working across platforms.
var (
	// MessageKey matches every message event.
	MessageKey = Define[MessageEvent]("botevent.message", Root)

	// ContactMessageKey matches direct messages from a contact.
	ContactMessageKey = Define[MessageEvent]("botevent.contact_message", MessageKey)

	// OrganizationKey matches every event scoped to an organization.
	OrganizationKey = Define[SourceEvent]("botevent.organization", Root)

	// OrganizationMessageKey matches messages sent inside an organization.
	OrganizationMessageKey = Define[OrganizationMessageEvent]("botevent.organization_message", MessageKey, OrganizationKey)
)

// Text is plain-text message content.
type Text string

// PlainText implements MessageContent.
func (t Text) PlainText() string {
	return string(t)
}

// Message is a generic message event usable by adapters that need nothing
// more specific. Its Key decides which taxonomy it belongs to.
type Message struct {
	Base
	Source string
	Author string
	Text   MessageContent
}

// NewMessage creates a message event.
// An empty source is allowed for contact messages.
func NewMessage(key *Key, source, author, text string, opts ...Option) *Message {
	return &Message{
		Base:   NewBase(key, opts...),
		Source: source,
		Author: author,
		Text:   Text(text),
	}
}

// SourceID returns the organization the message was sent in.
func (m *Message) SourceID() string {
	return m.Source
}

// AuthorID returns the sender.
func (m *Message) AuthorID() string {
	return m.Author
}

// Content returns the message content.
func (m *Message) Content() MessageContent {
	return m.Text
}
