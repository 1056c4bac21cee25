package model

import "strings"

type EventKind int

const (
	EventText EventKind = iota
	EventCallback
)

func (k EventKind) String() string {
	if k == EventCallback {
		return "callback"
	}
	return "text"
}

// Event is one inbound user action: a free-text message or a button callback.
type Event struct {
	UserID   int64
	ChatID   int64
	Username string
	Kind     EventKind
	Text     string // message text (EventText)
	Payload  string // callback data (EventCallback)
}

func TextEvent(userID int64, text string) Event {
	return Event{UserID: userID, ChatID: userID, Kind: EventText, Text: text}
}

func CallbackEvent(userID int64, payload string) Event {
	return Event{UserID: userID, ChatID: userID, Kind: EventCallback, Payload: payload}
}

// IsStart reports whether the event is the "start" command.
func (e Event) IsStart() bool {
	if e.Kind != EventText {
		return false
	}
	f := strings.Fields(e.Text)
	if len(f) == 0 {
		return false
	}
	cmd := strings.ToLower(f[0])
	// "/start@BotName" in group chats
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return cmd == "/start"
}

// Input returns the payload for callbacks and the trimmed text for messages.
func (e Event) Input() string {
	if e.Kind == EventCallback {
		return strings.TrimSpace(e.Payload)
	}
	return strings.TrimSpace(e.Text)
}

// Button is one selectable option: either a callback payload or a URL.
type Button struct {
	Label   string
	Payload string
	URL     string
}

// Reply is the outbound message descriptor.
type Reply struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

// Payloads lists every callback payload offered by the reply.
func (r Reply) Payloads() []string {
	var out []string
	for _, row := range r.Buttons {
		for _, b := range row {
			if b.Payload != "" {
				out = append(out, b.Payload)
			}
		}
	}
	return out
}
