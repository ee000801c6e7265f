package models

import (
	"encoding/json"
	"time"
)

// Message directions in the conversation transcript.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// TranscriptEntry is one stored line of a conversation: a user's turn or a
// bot reply.
type TranscriptEntry struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Direction      string          `json:"direction"`
	SenderID       string          `json:"sender_id"`
	SenderName     string          `json:"sender_name"`
	Kind           string          `json:"kind,omitempty"`
	Content        string          `json:"content"`
	Attachment     json.RawMessage `json:"attachment,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Activity types accepted on the messages endpoint.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
)

type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ConversationAccount struct {
	ID string `json:"id"`
}

type Attachment struct {
	ContentType string `json:"contentType"`
	Content     any    `json:"content"`
}

// Activity is the envelope of a turn in and of each reply out.
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	Timestamp    *time.Time          `json:"timestamp,omitempty"`
	Text         string              `json:"text,omitempty"`
	From         ChannelAccount      `json:"from"`
	Recipient    ChannelAccount      `json:"recipient"`
	Conversation ConversationAccount `json:"conversation"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
	Attachments  []Attachment        `json:"attachments,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
}

type ActivitiesResponse struct {
	Kind       ResponseKind `json:"kind"`
	Activities []Activity   `json:"activities"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	WSTypeConnected   = "connected"
	WSTypeWelcome     = "welcome"
	WSTypeBotReply    = "bot_reply"
	WSTypeTurn        = "turn"
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypeError       = "error"
)

type TurnPayload struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

type BotReplyPayload struct {
	ConversationID string       `json:"conversation_id"`
	Kind           ResponseKind `json:"kind"`
	Activities     []Activity   `json:"activities"`
}
