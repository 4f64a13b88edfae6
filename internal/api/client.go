// Package api is the REST client for the TeaTok backend. It covers the
// full platform surface (posts, rooms, reactions, comments, users, badges)
// and the chat endpoints used as the fallback path when no live socket
// session is connected.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/teatok-app/teatok-tui/internal/models"
)

const (
	defaultTimeout = 30 * time.Second

	// maxResponseSize caps response bodies read into memory.
	maxResponseSize = 10 * 1024 * 1024
)

// Error is a failed API call. Message carries the backend's error field
// when one was returned.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

// SetToken installs the bearer credential attached to authenticated calls.
// An empty token is tolerated; the server rejects what it needs to.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// --- Posts ---

func (c *Client) GetPosts(ctx context.Context, roomID string) ([]models.Post, error) {
	path := "/posts"
	if roomID != "" {
		path += "?roomId=" + url.QueryEscape(roomID)
	}
	var posts []models.Post
	err := c.do(ctx, http.MethodGet, path, nil, &posts)
	return posts, err
}

func (c *Client) GetUserPosts(ctx context.Context, authorID string) ([]models.Post, error) {
	var posts []models.Post
	err := c.do(ctx, http.MethodGet, "/posts?authorId="+url.QueryEscape(authorID), nil, &posts)
	return posts, err
}

type CreatePostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	RoomID      string `json:"roomId"`
	Category    string `json:"category"`
	Duration    string `json:"duration"`
	IsVoiceNote bool   `json:"isVoiceNote,omitempty"`
}

func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/posts", req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), nil, nil)
}

// --- Rooms ---

func (c *Client) GetRooms(ctx context.Context, trendingOnly bool) ([]models.Room, error) {
	path := "/rooms"
	if trendingOnly {
		path += "?trending=true"
	}
	var rooms []models.Room
	err := c.do(ctx, http.MethodGet, path, nil, &rooms)
	return rooms, err
}

// RoomDetail is a room plus its recent posts.
type RoomDetail struct {
	models.Room
	RecentPosts []models.Post `json:"recentPosts"`
}

func (c *Client) GetRoom(ctx context.Context, roomID string) (*RoomDetail, error) {
	var room RoomDetail
	if err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	Gradient    string `json:"gradient,omitempty"`
}

func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	var room models.Room
	if err := c.do(ctx, http.MethodPost, "/rooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// --- Reactions ---

type reactionRequest struct {
	PostID       string              `json:"postId"`
	ReactionType models.ReactionType `json:"reactionType"`
}

func (c *Client) AddReaction(ctx context.Context, postID string, rt models.ReactionType) error {
	return c.do(ctx, http.MethodPost, "/reactions", reactionRequest{postID, rt}, nil)
}

func (c *Client) RemoveReaction(ctx context.Context, postID string, rt models.ReactionType) error {
	return c.do(ctx, http.MethodDelete, "/reactions", reactionRequest{postID, rt}, nil)
}

func (c *Client) GetPostReactions(ctx context.Context, postID, userID string) (*models.ReactionSummary, error) {
	path := "/reactions/" + url.PathEscape(postID)
	if userID != "" {
		path += "?userId=" + url.QueryEscape(userID)
	}
	var summary models.ReactionSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// --- Comments ---

func (c *Client) GetPostComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := c.do(ctx, http.MethodGet, "/comments/"+url.PathEscape(postID), nil, &comments)
	return comments, err
}

type CreateCommentRequest struct {
	PostID          string `json:"postId"`
	Content         string `json:"content"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}

func (c *Client) CreateComment(ctx context.Context, req CreateCommentRequest) (*models.Comment, error) {
	var comment models.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/comments/"+url.PathEscape(commentID), nil, nil)
}

// --- Users ---

func (c *Client) GetUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/users", nil, &users)
	return users, err
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/users/login", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) CreateAnonymousUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/users/anonymous", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Logout(ctx context.Context, userID string) error {
	body := map[string]string{"userId": userID}
	return c.do(ctx, http.MethodPost, "/users/logout", body, nil)
}

func (c *Client) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Badges ---

func (c *Client) GetUserBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	var badges []models.Badge
	err := c.do(ctx, http.MethodGet, "/badges/"+url.PathEscape(userID), nil, &badges)
	return badges, err
}

// BadgeCheck is the result of asking the server to re-evaluate awards.
type BadgeCheck struct {
	NewBadges []models.Badge `json:"newBadges"`
	TotalNew  int            `json:"totalNew"`
}

func (c *Client) CheckBadges(ctx context.Context, userID string) (*BadgeCheck, error) {
	var check BadgeCheck
	if err := c.do(ctx, http.MethodPost, "/badges/"+url.PathEscape(userID)+"/check", nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// --- Chats ---

// SendResult is the response to a chat send: a status line plus the full
// updated conversation snapshot.
type SendResult struct {
	Message string       `json:"message"`
	Chat    *models.Chat `json:"chat"`
}

func (c *Client) SendMessage(ctx context.Context, req models.SendMessagePayload) (*SendResult, error) {
	var result SendResult
	if err := c.do(ctx, http.MethodPost, "/chats/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetUserChats(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := c.do(ctx, http.MethodGet, "/chats/user/"+url.PathEscape(userID), nil, &chats)
	return chats, err
}

func (c *Client) GetChatBetween(ctx context.Context, userID1, userID2 string) (*models.Chat, error) {
	path := "/chats/between/" + url.PathEscape(userID1) + "/" + url.PathEscape(userID2)
	var chat models.Chat
	if err := c.do(ctx, http.MethodGet, path, nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) MarkMessagesRead(ctx context.Context, req models.MarkReadPayload) error {
	return c.do(ctx, http.MethodPost, "/chats/mark-read", req, nil)
}

type DeleteMessageRequest struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

func (c *Client) DeleteMessage(ctx context.Context, req DeleteMessageRequest) error {
	return c.do(ctx, http.MethodDelete, "/chats/message", req, nil)
}

func (c *Client) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	var result struct {
		UnreadCount int `json:"unreadCount"`
	}
	err := c.do(ctx, http.MethodGet, "/chats/unread/"+url.PathEscape(userID), nil, &result)
	return result.UnreadCount, err
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/chats/search-users?query="+url.QueryEscape(query), nil, &users)
	return users, err
}
