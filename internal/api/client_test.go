package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teatok-app/teatok-tui/internal/models"
)

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.User{})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok-123")
	_, err := c.GetUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Room{})
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetRooms(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestSendMessageRequestShape(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(SendResult{
			Message: "Message sent",
			Chat:    &models.Chat{ID: "chat1"},
		})
	}))
	defer srv.Close()

	result, err := New(srv.URL).SendMessage(context.Background(), models.SendMessagePayload{
		SenderID:   "u1",
		ReceiverID: "u2",
		Content:    "hello",
		Type:       models.MessageTypeText,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/chats/send", gotPath)
	assert.Equal(t, map[string]interface{}{
		"senderId":    "u1",
		"receiverId":  "u2",
		"content":     "hello",
		"messageType": "text",
	}, gotBody)
	require.NotNil(t, result.Chat)
	assert.Equal(t, "chat1", result.Chat.ID)
}

func TestErrorBodyParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "nope"})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "Invalid credentials")
}

func TestErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL).DeletePost(context.Background(), "p1")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Empty(t, apiErr.Message)
}

func TestQueryParametersEscaped(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		json.NewEncoder(w).Encode([]models.User{})
	}))
	defer srv.Close()

	_, err := New(srv.URL).SearchUsers(context.Background(), "tea & cap")
	require.NoError(t, err)
	assert.Equal(t, "tea & cap", gotQuery)
}

func TestGetChatBetweenPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(models.Chat{ID: "chat9"})
	}))
	defer srv.Close()

	chat, err := New(srv.URL).GetChatBetween(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, "/chats/between/u1/u2", gotPath)
	assert.Equal(t, "chat9", chat.ID)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL).GetPosts(ctx, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
