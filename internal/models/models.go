package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// User represents a platform user. Anonymous users have no email and
// carry an alias plus a generated anonymous id.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Alias       string `json:"alias,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`
	Token       string `json:"token,omitempty"`
}

// Author is the reduced user reference embedded in posts and comments.
type Author struct {
	Name        string `json:"name"`
	Alias       string `json:"alias,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`
}

// Room is a topic room that posts are filed under.
type Room struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Icon            string    `json:"icon"`
	Gradient        string    `json:"gradient"`
	IsTrending      bool      `json:"isTrending"`
	MemberCount     int       `json:"memberCount"`
	RecentPostCount int       `json:"recentPostCount"`
	LastActivity    string    `json:"lastActivity,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Post is a piece of "tea": a short-lived or permanent text/voice post.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"authorId"`
	Author      Author    `json:"author"`
	Room        RoomRef   `json:"room"`
	Category    string    `json:"category"`
	Duration    string    `json:"duration"`
	IsVoiceNote bool      `json:"isVoiceNote"`
	ExpiresAt   string    `json:"expiresAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomRef is the reduced room reference embedded in posts.
type RoomRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Gradient string `json:"gradient"`
}

type ReactionType string

const (
	ReactionTea    ReactionType = "tea"
	ReactionSpicy  ReactionType = "spicy"
	ReactionCap    ReactionType = "cap"
	ReactionHearts ReactionType = "hearts"
)

// ReactionCounts holds the per-type reaction tallies for a post.
type ReactionCounts struct {
	Tea    int `json:"tea"`
	Spicy  int `json:"spicy"`
	Cap    int `json:"cap"`
	Hearts int `json:"hearts"`
}

// ReactionSummary is the server's aggregated reaction state for a post,
// optionally including the requesting user's own reaction.
type ReactionSummary struct {
	Reactions      ReactionCounts `json:"reactions"`
	TotalReactions int            `json:"totalReactions"`
	UserReaction   *UserReaction  `json:"userReaction,omitempty"`
}

type UserReaction struct {
	ReactionType ReactionType `json:"reactionType"`
	CreatedAt    string       `json:"createdAt"`
}

// Comment is a threaded comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Replies   []Comment `json:"replies,omitempty"`
}

// Badge is an achievement awarded by the server.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Rarity      string `json:"rarity"`
	Earned      bool   `json:"earned"`
	EarnedAt    string `json:"earnedAt,omitempty"`
}

// UserStats is the server-computed activity summary for a profile page.
type UserStats struct {
	TotalPosts       int     `json:"totalPosts"`
	TotalReactions   int     `json:"totalReactions"`
	TopCategory      string  `json:"topCategory"`
	MemberSince      string  `json:"memberSince"`
	Streak           int     `json:"streak"`
	AverageReactions float64 `json:"averageReactions"`
}

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Participant is a user reference inside a chat document.
type Participant struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Alias string `json:"alias,omitempty"`
}

// Sender is the reduced user reference on a chat message.
type Sender struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// ReadReceipt records that a user has read messages up to readAt.
type ReadReceipt struct {
	User   string `json:"user"`
	ReadAt string `json:"readAt"`
}

// ChatMessage is a single message inside a chat snapshot. Identifiers and
// ordering are always server-assigned.
type ChatMessage struct {
	ID        string        `json:"_id"`
	Sender    Sender        `json:"sender"`
	Content   string        `json:"content"`
	Timestamp string        `json:"timestamp"`
	Type      MessageType   `json:"messageType"`
	ReadBy    []ReadReceipt `json:"readBy,omitempty"`
	IsDeleted bool          `json:"isDeleted"`
}

// LastMessage is the chat-list preview of the newest message.
type LastMessage struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Sender    Sender `json:"sender"`
}

// Chat is a complete server-authoritative conversation snapshot:
// participants, append-ordered messages (oldest first) and read state.
// It is always applied as a wholesale replacement, never patched.
type Chat struct {
	ID           string        `json:"_id"`
	Participants []Participant `json:"participants"`
	Messages     []ChatMessage `json:"messages"`
	LastMessage  *LastMessage  `json:"lastMessage,omitempty"`
	UnreadCount  int           `json:"unreadCount,omitempty"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

// PlaceholderPrefix marks a client-only chat created before the server has
// issued a real conversation id.
const PlaceholderPrefix = "temp-"

// IsPlaceholder reports whether the chat id is a client-generated
// placeholder rather than a server-issued identifier.
func (c *Chat) IsPlaceholder() bool {
	return strings.HasPrefix(c.ID, PlaceholderPrefix)
}

// OtherParticipant returns the counterpart of selfID in a direct chat.
func (c *Chat) OtherParticipant(selfID string) (Participant, bool) {
	for _, p := range c.Participants {
		if p.ID != selfID {
			return p, true
		}
	}
	return Participant{}, false
}

// Envelope wraps every frame on the socket with a named event type.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type EventType string

const (
	// Transport lifecycle, raised locally by the session
	EventConnect      EventType = "connect"
	EventDisconnect   EventType = "disconnect"
	EventConnectError EventType = "connect_error"

	// Outbound
	EventJoinChat    EventType = "join-chat"
	EventSendMessage EventType = "send-message"
	EventMarkRead    EventType = "mark-read"
	EventTypingStart EventType = "typing-start"
	EventTypingStop  EventType = "typing-stop"

	// Inbound
	EventChatStatus     EventType = "chat-status"
	EventUserOnline     EventType = "user-online"
	EventOnlineUsers    EventType = "online-users"
	EventUserOffline    EventType = "user-offline"
	EventReceiveMessage EventType = "receive-message"
	EventMessageSent    EventType = "message-sent"
	EventMessageError   EventType = "message-error"
	EventMessagesRead   EventType = "messages-read"
	EventUserTyping     EventType = "user-typing"
)

// SendMessagePayload is the outbound send-message body. The same shape is
// used by the REST fallback endpoint.
type SendMessagePayload struct {
	SenderID   string      `json:"senderId"`
	ReceiverID string      `json:"receiverId"`
	Content    string      `json:"content"`
	Type       MessageType `json:"messageType"`
}

type MarkReadPayload struct {
	ChatID    string `json:"chatId"`
	UserID    string `json:"userId"`
	MessageID string `json:"messageId,omitempty"`
}

type TypingPayload struct {
	ChatID     string `json:"chatId"`
	UserID     string `json:"userId"`
	ReceiverID string `json:"receiverId"`
}

type PresencePayload struct {
	UserID string `json:"userId"`
}

type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

type UserTypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// ChatSnapshotPayload carries a full conversation snapshot addressed to a
// conversation id (receive-message) or acknowledging a send (message-sent,
// where ChatID may be empty and the id lives on the chat itself).
type ChatSnapshotPayload struct {
	ChatID string `json:"chatId,omitempty"`
	Chat   *Chat  `json:"chat"`
}
