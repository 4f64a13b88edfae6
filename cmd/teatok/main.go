package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/teatok-app/teatok-tui/internal/api"
	"github.com/teatok-app/teatok-tui/internal/chat"
	"github.com/teatok-app/teatok-tui/internal/config"
	"github.com/teatok-app/teatok-tui/internal/debug"
	"github.com/teatok-app/teatok-tui/internal/models"
	"github.com/teatok-app/teatok-tui/internal/session"
)

// --- Styles ---

var (
	primaryColor   = lipgloss.Color("#D946EF")
	secondaryColor = lipgloss.Color("#10B981")
	mutedColor     = lipgloss.Color("#9CA3AF")
	errorColor     = lipgloss.Color("#EF4444")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	ownMessageStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	otherMessageStyle = lipgloss.NewStyle().
				Foreground(primaryColor)

	onlineStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// --- View State ---

type viewState int

const (
	viewAuth viewState = iota
	viewRooms
	viewFeed
	viewComments
	viewCompose
	viewChats
	viewChat
)

// --- Messages ---

type errMsg struct {
	err error
}

type authDoneMsg struct {
	user models.User
}

type sessionOpenedMsg struct{}

type sessionErrMsg struct {
	err error
}

type chatEventMsg struct {
	ev chat.Event
}

type roomsMsg struct {
	rooms []models.Room
}

type postsMsg struct {
	posts []models.Post
}

type reactionsMsg struct {
	postID  string
	summary *models.ReactionSummary
}

type commentsMsg struct {
	postID   string
	comments []models.Comment
}

type commentPostedMsg struct {
	postID string
}

type postCreatedMsg struct {
	roomID string
}

type chatsMsg struct {
	chats []models.Chat
}

type searchResultsMsg struct {
	users []models.User
}

type chatLoadedMsg struct {
	chat *models.Chat
}

type messageSentMsg struct{}

// --- Main Model ---

type model struct {
	profile string
	cfg     *config.Config

	apiClient  *api.Client
	chatClient *chat.Client

	identity  *session.Identity
	connected bool

	// Auth
	authAction    string // "login", "register" or "anonymous"
	nameInput     textinput.Model
	emailInput    textinput.Model
	passwordInput textinput.Model
	authFocused   int
	authError     string

	// Rooms & feed
	rooms        []models.Room
	selectedRoom int
	posts        []models.Post
	selectedPost int
	reactions    map[string]*models.ReactionSummary

	// Comments
	comments     []models.Comment
	commentInput textinput.Model

	// New post
	titleInput     textinput.Model
	postInput      textinput.Model
	composeFocused int

	// Chats
	chats        []models.Chat
	selectedChat int
	searchInput  textinput.Model
	searchUsers  []models.User
	searchMode   bool

	// Chat window
	messageInput textinput.Model
	chatViewport viewport.Model

	// UI
	view   viewState
	width  int
	height int
	status string
}

func initialModel(profile string, cfg *config.Config) model {
	nameInput := textinput.New()
	nameInput.Placeholder = "Name"
	nameInput.CharLimit = 64
	nameInput.Width = 30

	emailInput := textinput.New()
	emailInput.Placeholder = "Email"
	emailInput.Focus()
	emailInput.CharLimit = 128
	emailInput.Width = 30

	passwordInput := textinput.New()
	passwordInput.Placeholder = "Password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.CharLimit = 64
	passwordInput.Width = 30

	commentInput := textinput.New()
	commentInput.Placeholder = "Spill your thoughts..."
	commentInput.CharLimit = 500
	commentInput.Width = 50

	titleInput := textinput.New()
	titleInput.Placeholder = "What's the tea?"
	titleInput.CharLimit = 120
	titleInput.Width = 50

	postInput := textinput.New()
	postInput.Placeholder = "Spill it..."
	postInput.CharLimit = 2000
	postInput.Width = 50

	searchInput := textinput.New()
	searchInput.Placeholder = "Search by username..."
	searchInput.CharLimit = 64
	searchInput.Width = 30

	messageInput := textinput.New()
	messageInput.Placeholder = "Type a message..."
	messageInput.CharLimit = 1000
	messageInput.Width = 50

	apiClient := api.New(cfg.APIURL)
	chatClient := chat.New(chat.Config{
		Dial: func() (chat.Transport, error) {
			return chat.NewWebsocketTransport(cfg.ResolveSocketURL()), nil
		},
		Fallback: apiClient,
	})

	m := model{
		profile:       profile,
		cfg:           cfg,
		apiClient:     apiClient,
		chatClient:    chatClient,
		authAction:    "login",
		nameInput:     nameInput,
		emailInput:    emailInput,
		passwordInput: passwordInput,
		commentInput:  commentInput,
		titleInput:    titleInput,
		postInput:     postInput,
		searchInput:   searchInput,
		messageInput:  messageInput,
		chatViewport:  viewport.New(80, 20),
		reactions:     map[string]*models.ReactionSummary{},
		view:          viewAuth,
	}

	if id := session.Load(profile); id != nil {
		m.identity = id
		apiClient.SetToken(id.Token)
		m.view = viewRooms
	}

	return m
}

// --- Commands ---

func (m model) authenticate() tea.Cmd {
	action := m.authAction
	name := m.nameInput.Value()
	email := m.emailInput.Value()
	password := m.passwordInput.Value()
	client := m.apiClient

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var (
			user *models.User
			err  error
		)
		switch action {
		case "register":
			user, err = client.Register(ctx, api.RegisterRequest{Name: name, Email: email, Password: password})
		case "anonymous":
			user, err = client.CreateAnonymousUser(ctx)
		default:
			user, err = client.Login(ctx, api.LoginRequest{Email: email, Password: password})
		}
		if err != nil {
			return errMsg{err}
		}
		return authDoneMsg{user: *user}
	}
}

func openSession(c *chat.Client, userID string) tea.Cmd {
	return func() tea.Msg {
		if err := c.Open(userID); err != nil {
			return sessionErrMsg{err}
		}
		return sessionOpenedMsg{}
	}
}

func waitForChatEvent(c *chat.Client) tea.Cmd {
	return func() tea.Msg {
		return chatEventMsg{ev: <-c.Events()}
	}
}

func (m model) loadRooms() tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rooms, err := client.GetRooms(ctx, false)
		if err != nil {
			return errMsg{err}
		}
		return roomsMsg{rooms: rooms}
	}
}

func (m model) loadPosts(roomID string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		posts, err := client.GetPosts(ctx, roomID)
		if err != nil {
			return errMsg{err}
		}
		return postsMsg{posts: posts}
	}
}

func (m model) loadReactions(postID string) tea.Cmd {
	client := m.apiClient
	userID := m.userID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		summary, err := client.GetPostReactions(ctx, postID, userID)
		if err != nil {
			return errMsg{err}
		}
		return reactionsMsg{postID: postID, summary: summary}
	}
}

// toggleReaction adds the reaction, or removes it when it is already the
// user's current one, then refetches the authoritative counts.
func (m model) toggleReaction(postID string, rt models.ReactionType) tea.Cmd {
	client := m.apiClient
	userID := m.userID()
	current := m.reactions[postID]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		if current != nil && current.UserReaction != nil && current.UserReaction.ReactionType == rt {
			err = client.RemoveReaction(ctx, postID, rt)
		} else {
			err = client.AddReaction(ctx, postID, rt)
		}
		if err != nil {
			return errMsg{err}
		}

		summary, err := client.GetPostReactions(ctx, postID, userID)
		if err != nil {
			return errMsg{err}
		}
		return reactionsMsg{postID: postID, summary: summary}
	}
}

func (m model) loadComments(postID string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		comments, err := client.GetPostComments(ctx, postID)
		if err != nil {
			return errMsg{err}
		}
		return commentsMsg{postID: postID, comments: comments}
	}
}

func (m model) createPost(roomID, title, content string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		req := api.CreatePostRequest{Title: title, Content: content, RoomID: roomID}
		if _, err := client.CreatePost(ctx, req); err != nil {
			return errMsg{err}
		}
		return postCreatedMsg{roomID: roomID}
	}
}

func (m model) postComment(postID, content string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := client.CreateComment(ctx, api.CreateCommentRequest{PostID: postID, Content: content}); err != nil {
			return errMsg{err}
		}
		return commentPostedMsg{postID: postID}
	}
}

func (m model) loadChats() tea.Cmd {
	client := m.apiClient
	userID := m.userID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chats, err := client.GetUserChats(ctx, userID)
		if err != nil {
			return errMsg{err}
		}
		return chatsMsg{chats: chats}
	}
}

func (m model) searchForUsers(query string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		users, err := client.SearchUsers(ctx, query)
		if err != nil {
			return errMsg{err}
		}
		return searchResultsMsg{users: users}
	}
}

func (m model) fetchChatWith(otherID string) tea.Cmd {
	client := m.apiClient
	userID := m.userID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		chatDoc, err := client.GetChatBetween(ctx, userID, otherID)
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
				// No history yet; the placeholder stays until the first send.
				return nil
			}
			return errMsg{err}
		}
		return chatLoadedMsg{chat: chatDoc}
	}
}

func (m model) sendChatMessage(receiverID, content string) tea.Cmd {
	client := m.chatClient
	userID := m.userID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := client.SendMessage(ctx, userID, receiverID, content, models.MessageTypeText); err != nil {
			return errMsg{err}
		}
		return messageSentMsg{}
	}
}

// --- Init ---

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForChatEvent(m.chatClient)}
	if m.identity != nil {
		cmds = append(cmds, openSession(m.chatClient, m.identity.UserID), m.loadRooms())
	}
	return tea.Batch(cmds...)
}

// --- Update ---

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		newModel, cmd, handled := m.handleKey(msg)
		if handled {
			return newModel, cmd
		}
		m = newModel

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatViewport.Width = msg.Width - 4
		m.chatViewport.Height = msg.Height - 8

	case errMsg:
		m.status = errorStyle.Render(msg.err.Error())
		if m.view == viewAuth {
			m.authError = msg.err.Error()
		}

	case authDoneMsg:
		id := session.FromUser(msg.user)
		m.identity = &id
		m.apiClient.SetToken(msg.user.Token)
		if err := session.Save(m.profile, *m.identity); err != nil {
			debug.Log("save identity: %v", err)
		}
		m.authError = ""
		m.view = viewRooms
		return m, tea.Batch(openSession(m.chatClient, msg.user.ID), m.loadRooms())

	case sessionOpenedMsg:
		m.connected = true

	case sessionErrMsg:
		// Non-fatal: sends fall back to REST until the session connects.
		m.connected = false
		debug.Log("session open: %v", msg.err)

	case chatEventMsg:
		m = m.handleChatEvent(msg.ev)
		cmds = append(cmds, waitForChatEvent(m.chatClient))

	case roomsMsg:
		m.rooms = msg.rooms
		if m.selectedRoom >= len(m.rooms) {
			m.selectedRoom = 0
		}

	case postsMsg:
		m.posts = msg.posts
		m.selectedPost = 0
		for _, p := range msg.posts {
			cmds = append(cmds, m.loadReactions(p.ID))
		}

	case reactionsMsg:
		m.reactions[msg.postID] = msg.summary

	case commentsMsg:
		m.comments = msg.comments

	case commentPostedMsg:
		cmds = append(cmds, m.loadComments(msg.postID))

	case postCreatedMsg:
		m.view = viewFeed
		cmds = append(cmds, m.loadPosts(msg.roomID))

	case chatsMsg:
		m.chats = msg.chats
		if m.selectedChat >= len(m.chats) {
			m.selectedChat = 0
		}

	case searchResultsMsg:
		m.searchUsers = msg.users

	case chatLoadedMsg:
		m.chatClient.SetActiveChat(msg.chat)
		m.view = viewChat
		m.messageInput.Focus()
		m.refreshChatViewport()
		if !msg.chat.IsPlaceholder() {
			m.chatClient.MarkAsRead(msg.chat.ID, m.userID(), "")
		}

	case messageSentMsg:
		// Refresh covers the REST fallback, where the snapshot is already
		// merged; the live path updates on the message-sent echo.
		m.refreshChatViewport()
	}

	// Update focused text inputs
	switch m.view {
	case viewAuth:
		switch m.authFocused {
		case 0:
			m.nameInput, _ = m.nameInput.Update(msg)
		case 1:
			m.emailInput, _ = m.emailInput.Update(msg)
		default:
			m.passwordInput, _ = m.passwordInput.Update(msg)
		}
	case viewComments:
		m.commentInput, _ = m.commentInput.Update(msg)
	case viewCompose:
		if m.composeFocused == 0 {
			m.titleInput, _ = m.titleInput.Update(msg)
		} else {
			m.postInput, _ = m.postInput.Update(msg)
		}
	case viewChats:
		m.searchInput, _ = m.searchInput.Update(msg)
	case viewChat:
		m.messageInput, _ = m.messageInput.Update(msg)
		m.chatViewport, _ = m.chatViewport.Update(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		m.chatClient.Close()
		return m, tea.Quit, true

	case "q":
		if m.view == viewRooms {
			m.chatClient.Close()
			return m, tea.Quit, true
		}

	case "esc":
		switch m.view {
		case viewFeed:
			m.view = viewRooms
			return m, nil, true
		case viewComments:
			m.view = viewFeed
			return m, nil, true
		case viewCompose:
			m.titleInput.SetValue("")
			m.postInput.SetValue("")
			m.view = viewFeed
			return m, nil, true
		case viewChats:
			if m.searchMode {
				m.searchMode = false
				m.searchInput.Blur()
				m.searchUsers = nil
				m.searchInput.SetValue("")
				return m, nil, true
			}
			m.view = viewRooms
			return m, nil, true
		case viewChat:
			m.chatClient.StopTyping()
			m.chatClient.SetActiveChat(nil)
			m.messageInput.Blur()
			m.messageInput.SetValue("")
			m.view = viewChats
			return m, m.loadChats(), true
		}

	case "tab":
		if m.view == viewAuth {
			m.authFocused = (m.authFocused + 1) % 3
			if m.authAction != "register" && m.authFocused == 0 {
				// Name field only exists on the register form.
				m.authFocused = 1
			}
			m.nameInput.Blur()
			m.emailInput.Blur()
			m.passwordInput.Blur()
			switch m.authFocused {
			case 0:
				m.nameInput.Focus()
			case 1:
				m.emailInput.Focus()
			default:
				m.passwordInput.Focus()
			}
			return m, nil, true
		}
		if m.view == viewCompose {
			m.composeFocused = (m.composeFocused + 1) % 2
			if m.composeFocused == 0 {
				m.titleInput.Focus()
				m.postInput.Blur()
			} else {
				m.titleInput.Blur()
				m.postInput.Focus()
			}
			return m, nil, true
		}

	case "ctrl+r":
		if m.view == viewAuth {
			switch m.authAction {
			case "login":
				m.authAction = "register"
			case "register":
				m.authAction = "anonymous"
			default:
				m.authAction = "login"
			}
			return m, nil, true
		}

	case "ctrl+l":
		if m.view != viewAuth && m.identity != nil {
			userID := m.identity.UserID
			client := m.apiClient
			m.chatClient.Close()
			session.Clear(m.profile)
			m.identity = nil
			m.connected = false
			m.view = viewAuth
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := client.Logout(ctx, userID); err != nil {
					debug.Log("logout: %v", err)
				}
				return nil
			}, true
		}

	case "enter":
		return m.handleEnter()

	case "up", "k":
		switch m.view {
		case viewRooms:
			if m.selectedRoom > 0 {
				m.selectedRoom--
			}
			return m, nil, true
		case viewFeed:
			if m.selectedPost > 0 {
				m.selectedPost--
			}
			return m, nil, true
		case viewChats:
			if !m.searchMode && m.selectedChat > 0 {
				m.selectedChat--
				return m, nil, true
			}
		}

	case "down", "j":
		switch m.view {
		case viewRooms:
			if m.selectedRoom < len(m.rooms)-1 {
				m.selectedRoom++
			}
			return m, nil, true
		case viewFeed:
			if m.selectedPost < len(m.posts)-1 {
				m.selectedPost++
			}
			return m, nil, true
		case viewChats:
			if !m.searchMode && m.selectedChat < len(m.chats)-1 {
				m.selectedChat++
				return m, nil, true
			}
		}

	case "m":
		if m.view == viewRooms {
			m.view = viewChats
			return m, m.loadChats(), true
		}

	case "/":
		if m.view == viewChats && !m.searchMode {
			m.searchMode = true
			m.searchInput.Focus()
			return m, nil, true
		}

	case "n":
		if m.view == viewFeed {
			m.view = viewCompose
			m.composeFocused = 0
			m.titleInput.Focus()
			m.postInput.Blur()
			return m, nil, true
		}

	case "c":
		if m.view == viewFeed && len(m.posts) > 0 {
			post := m.posts[m.selectedPost]
			m.view = viewComments
			m.commentInput.Focus()
			m.comments = nil
			return m, m.loadComments(post.ID), true
		}

	case "1", "2", "3", "4":
		if m.view == viewFeed && len(m.posts) > 0 {
			types := map[string]models.ReactionType{
				"1": models.ReactionTea,
				"2": models.ReactionSpicy,
				"3": models.ReactionCap,
				"4": models.ReactionHearts,
			}
			return m, m.toggleReaction(m.posts[m.selectedPost].ID, types[key]), true
		}
	}

	// Keystrokes in the message input drive the typing indicator.
	if m.view == viewChat && (msg.Type == tea.KeyRunes || key == "backspace") {
		if active := m.chatClient.ActiveChat(); active != nil {
			if other, ok := active.OtherParticipant(m.userID()); ok {
				m.chatClient.InputActivity(active.ID, m.userID(), other.ID)
			}
		}
	}

	return m, nil, false
}

func (m model) handleEnter() (model, tea.Cmd, bool) {
	switch m.view {
	case viewAuth:
		switch m.authAction {
		case "anonymous":
			return m, m.authenticate(), true
		case "register":
			if m.nameInput.Value() != "" && m.emailInput.Value() != "" && m.passwordInput.Value() != "" {
				return m, m.authenticate(), true
			}
		default:
			if m.emailInput.Value() != "" && m.passwordInput.Value() != "" {
				return m, m.authenticate(), true
			}
		}
		return m, nil, true

	case viewRooms:
		if len(m.rooms) > 0 {
			room := m.rooms[m.selectedRoom]
			m.view = viewFeed
			return m, m.loadPosts(room.ID), true
		}

	case viewCompose:
		title := strings.TrimSpace(m.titleInput.Value())
		content := strings.TrimSpace(m.postInput.Value())
		if title != "" && content != "" && len(m.rooms) > 0 {
			m.titleInput.SetValue("")
			m.postInput.SetValue("")
			return m, m.createPost(m.rooms[m.selectedRoom].ID, title, content), true
		}
		return m, nil, true

	case viewComments:
		content := strings.TrimSpace(m.commentInput.Value())
		if content != "" && len(m.posts) > 0 {
			m.commentInput.SetValue("")
			return m, m.postComment(m.posts[m.selectedPost].ID, content), true
		}
		return m, nil, true

	case viewChats:
		if m.searchMode {
			query := strings.TrimSpace(m.searchInput.Value())
			if len(query) >= 2 && len(m.searchUsers) == 0 {
				return m, m.searchForUsers(query), true
			}
			if len(m.searchUsers) > 0 {
				// Open (or create) a chat with the first match.
				user := m.searchUsers[0]
				m.searchMode = false
				m.searchInput.Blur()
				m.searchInput.SetValue("")
				m.searchUsers = nil
				return m.startChatWith(user)
			}
			return m, nil, true
		}
		if len(m.chats) > 0 {
			chatDoc := m.chats[m.selectedChat]
			m.chatClient.SetActiveChat(&chatDoc)
			m.view = viewChat
			m.messageInput.Focus()
			m.refreshChatViewport()
			if !chatDoc.IsPlaceholder() {
				m.chatClient.MarkAsRead(chatDoc.ID, m.userID(), "")
			}
			return m, nil, true
		}

	case viewChat:
		content := strings.TrimSpace(m.messageInput.Value())
		active := m.chatClient.ActiveChat()
		if content == "" || active == nil {
			return m, nil, true
		}
		other, ok := active.OtherParticipant(m.userID())
		if !ok {
			return m, nil, true
		}
		m.messageInput.SetValue("")
		m.chatClient.StopTyping()
		return m, m.sendChatMessage(other.ID, content), true
	}

	return m, nil, false
}

// startChatWith selects an existing conversation with the user when the
// server has one, via fetch; meanwhile a placeholder keeps the window
// usable for a first message.
func (m model) startChatWith(user models.User) (model, tea.Cmd, bool) {
	self := models.Participant{ID: m.userID(), Name: "You"}
	other := models.Participant{ID: user.ID, Name: user.Name, Email: user.Email, Alias: user.Alias}
	placeholder := chat.NewPlaceholderChat(self, other)

	m.chatClient.SetActiveChat(placeholder)
	m.view = viewChat
	m.messageInput.Focus()
	m.refreshChatViewport()
	return m, m.fetchChatWith(user.ID), true
}

func (m model) handleChatEvent(ev chat.Event) model {
	switch ev.Type {
	case models.EventConnect:
		m.connected = true
	case models.EventDisconnect:
		m.connected = false
	case models.EventReceiveMessage, models.EventMessageSent:
		m.refreshChatViewport()
	case models.EventMessagesRead:
		m.refreshChatViewport()
	}
	return m
}

func (m *model) refreshChatViewport() {
	active := m.chatClient.ActiveChat()
	if active == nil {
		m.chatViewport.SetContent("")
		return
	}

	var content strings.Builder
	for _, msg := range active.Messages {
		if msg.IsDeleted {
			content.WriteString(mutedStyle.Render("  (message deleted)") + "\n")
			continue
		}
		style := otherMessageStyle
		if msg.Sender.ID == m.userID() {
			style = ownMessageStyle
		}
		line := fmt.Sprintf("%s %s: %s",
			mutedStyle.Render(formatTimestamp(msg.Timestamp)),
			style.Render(senderName(msg.Sender)),
			msg.Content,
		)
		content.WriteString(line + "\n")
	}
	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m model) userID() string {
	if m.identity == nil {
		return ""
	}
	return m.identity.UserID
}

// --- View ---

func (m model) View() string {
	var body string
	switch m.view {
	case viewAuth:
		body = m.authView()
	case viewRooms:
		body = m.roomsView()
	case viewFeed:
		body = m.feedView()
	case viewComments:
		body = m.commentsView()
	case viewCompose:
		body = m.composeView()
	case viewChats:
		body = m.chatsView()
	case viewChat:
		body = m.chatView()
	}

	if m.status != "" {
		body += "\n" + m.status
	}
	return body
}

func (m model) connBadge() string {
	if m.connected {
		return onlineStyle.Render("● live")
	}
	return mutedStyle.Render("○ offline (rest fallback)")
}

func (m model) authView() string {
	var s strings.Builder

	s.WriteString("\n")
	s.WriteString(titleStyle.Render("☕ TEATOK"))
	s.WriteString("\n\n")

	for _, action := range []string{"login", "register", "anonymous"} {
		if action == m.authAction {
			s.WriteString(selectedStyle.Render("  → " + action))
		} else {
			s.WriteString(mutedStyle.Render("    " + action))
		}
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("  (Ctrl+R to switch)\n\n"))

	if m.authAction == "register" {
		s.WriteString("  Name:\n  " + m.nameInput.View() + "\n\n")
	}
	if m.authAction != "anonymous" {
		s.WriteString("  Email:\n  " + m.emailInput.View() + "\n\n")
		s.WriteString("  Password:\n  " + m.passwordInput.View() + "\n\n")
	} else {
		s.WriteString(mutedStyle.Render("  Spill anonymously. A throwaway identity is created for you.\n\n"))
	}

	if m.authError != "" {
		s.WriteString(errorStyle.Render("  " + m.authError + "\n\n"))
	}

	s.WriteString(helpStyle.Render("  Tab to switch fields • Enter to submit • Ctrl+C to quit\n"))
	return s.String()
}

func (m model) roomsView() string {
	var s strings.Builder

	name := ""
	if m.identity != nil {
		name = m.identity.Name
	}
	s.WriteString(titleStyle.Render(fmt.Sprintf("☕ TEATOK — %s", name)))
	s.WriteString("  " + m.connBadge() + "\n\n")

	if len(m.rooms) == 0 {
		s.WriteString(mutedStyle.Render("  No rooms yet.\n"))
	}
	for i, room := range m.rooms {
		prefix := "  "
		style := lipgloss.NewStyle()
		if i == m.selectedRoom {
			prefix = "→ "
			style = selectedStyle
		}
		trending := ""
		if room.IsTrending {
			trending = " 🔥"
		}
		s.WriteString(style.Render(fmt.Sprintf("%s%s %s%s", prefix, room.Icon, room.Name, trending)))
		s.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d members)\n", room.MemberCount)))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("  ↑/↓ navigate • Enter to open • m for messages • Ctrl+L logout • q to quit"))
	return s.String()
}

func (m model) feedView() string {
	var s strings.Builder

	roomName := ""
	if len(m.rooms) > 0 {
		roomName = m.rooms[m.selectedRoom].Name
	}
	s.WriteString(titleStyle.Render("☕ " + roomName))
	s.WriteString("\n\n")

	if len(m.posts) == 0 {
		s.WriteString(mutedStyle.Render("  No tea spilled here yet.\n"))
	}
	for i, post := range m.posts {
		style := lipgloss.NewStyle()
		prefix := "  "
		if i == m.selectedPost {
			prefix = "→ "
			style = selectedStyle
		}
		s.WriteString(style.Render(fmt.Sprintf("%s%s", prefix, post.Title)))
		s.WriteString(mutedStyle.Render(fmt.Sprintf("  by %s\n", authorName(post.Author))))
		s.WriteString(fmt.Sprintf("    %s\n", post.Content))
		if summary, ok := m.reactions[post.ID]; ok {
			own := ""
			if summary.UserReaction != nil {
				own = "  you: " + string(summary.UserReaction.ReactionType)
			}
			s.WriteString(mutedStyle.Render(fmt.Sprintf("    ☕ %d  🌶 %d  🧢 %d  ❤ %d%s\n",
				summary.Reactions.Tea, summary.Reactions.Spicy,
				summary.Reactions.Cap, summary.Reactions.Hearts, own)))
		}
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render("  ↑/↓ posts • 1-4 react (tea/spicy/cap/hearts) • c comments • n new post • Esc back"))
	return s.String()
}

func (m model) composeView() string {
	var s strings.Builder

	roomName := ""
	if len(m.rooms) > 0 {
		roomName = m.rooms[m.selectedRoom].Name
	}
	s.WriteString(titleStyle.Render("✍ Spill into " + roomName))
	s.WriteString("\n\n")
	s.WriteString("  Title:\n  " + m.titleInput.View() + "\n\n")
	s.WriteString("  Tea:\n  " + m.postInput.View() + "\n\n")
	s.WriteString(helpStyle.Render("  Tab to switch fields • Enter to post • Esc to cancel"))
	return s.String()
}

func (m model) commentsView() string {
	var s strings.Builder

	title := ""
	if len(m.posts) > 0 {
		title = m.posts[m.selectedPost].Title
	}
	s.WriteString(titleStyle.Render("💬 " + title))
	s.WriteString("\n\n")

	if len(m.comments) == 0 {
		s.WriteString(mutedStyle.Render("  No comments yet. Start the conversation!\n"))
	}
	for _, comment := range m.comments {
		s.WriteString(fmt.Sprintf("  %s: %s\n", otherMessageStyle.Render(authorName(comment.Author)), comment.Content))
		for _, reply := range comment.Replies {
			s.WriteString(mutedStyle.Render(fmt.Sprintf("    ↳ %s: %s\n", authorName(reply.Author), reply.Content)))
		}
	}

	s.WriteString("\n  " + m.commentInput.View() + "\n")
	s.WriteString(helpStyle.Render("  Enter to comment • Esc back"))
	return s.String()
}

func (m model) chatsView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("💬 Messages"))
	s.WriteString("  " + m.connBadge() + "\n\n")

	if m.searchMode {
		s.WriteString("  " + m.searchInput.View() + "\n")
		for _, user := range m.searchUsers {
			dot := "  "
			if m.chatClient.Presence().Online(user.ID) {
				dot = onlineStyle.Render("● ")
			}
			s.WriteString(fmt.Sprintf("   %s%s %s\n", dot, user.Name, mutedStyle.Render(user.Email)))
		}
		if len(m.searchUsers) == 0 {
			s.WriteString(mutedStyle.Render("   Enter to search\n"))
		} else {
			s.WriteString(helpStyle.Render("   Enter to chat with the first match • Esc to cancel\n"))
		}
		s.WriteString("\n")
	}

	if len(m.chats) == 0 && !m.searchMode {
		s.WriteString(mutedStyle.Render("  No conversations yet.\n"))
		s.WriteString(mutedStyle.Render("  Press / to search for users.\n"))
	}
	for i, chatDoc := range m.chats {
		other, ok := chatDoc.OtherParticipant(m.userID())
		if !ok {
			continue
		}
		prefix := "  "
		style := lipgloss.NewStyle()
		if i == m.selectedChat && !m.searchMode {
			prefix = "→ "
			style = selectedStyle
		}
		dot := "  "
		if m.chatClient.Presence().Online(other.ID) {
			dot = onlineStyle.Render("● ")
		}
		line := fmt.Sprintf("%s%s%s", prefix, dot, other.Name)
		if chatDoc.UnreadCount > 0 {
			line += errorStyle.Render(fmt.Sprintf(" (%d)", chatDoc.UnreadCount))
		}
		s.WriteString(style.Render(line) + "\n")
		if chatDoc.LastMessage != nil {
			s.WriteString(mutedStyle.Render(fmt.Sprintf("      %s\n", chatDoc.LastMessage.Content)))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("  ↑/↓ navigate • Enter to open • / search users • Esc back"))
	return s.String()
}

func (m model) chatView() string {
	var s strings.Builder

	active := m.chatClient.ActiveChat()
	header := "💬"
	typing := ""
	online := ""
	if active != nil {
		if other, ok := active.OtherParticipant(m.userID()); ok {
			header = "💬 " + other.Name
			if m.chatClient.Presence().Online(other.ID) {
				online = onlineStyle.Render(" (online)")
			} else {
				online = mutedStyle.Render(" (offline)")
			}
			if m.chatClient.Typing().IsTyping(other.ID) {
				typing = mutedStyle.Render("  typing...")
			}
		}
	}

	width := m.width
	if width < 10 {
		width = 80
	}

	s.WriteString(titleStyle.Render(header) + online + typing + "  " + m.connBadge())
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", width-2))
	s.WriteString("\n")
	s.WriteString(m.chatViewport.View())
	s.WriteString("\n")
	s.WriteString(strings.Repeat("─", width-2))
	s.WriteString("\n")
	s.WriteString(m.messageInput.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Enter to send • Esc to go back"))
	return s.String()
}

// --- Helpers ---

func formatTimestamp(ts string) string {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return parsed.Local().Format("15:04")
}

func senderName(s models.Sender) string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

func authorName(a models.Author) string {
	if a.Alias != "" {
		return a.Alias
	}
	if a.Name != "" {
		return a.Name
	}
	return "anon-" + a.AnonymousID
}

// --- Main ---

func main() {
	profile := flag.String("profile", "default", "Profile name (separate identities and config)")
	debugFlag := flag.Bool("debug", false, "Write diagnostics to debug.log in the profile dir")
	flag.Parse()

	cfg, err := config.Load(*profile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *debugFlag || cfg.Debug {
		debug.Enabled = true
		if dir := config.Dir(*profile); dir != "" {
			os.MkdirAll(dir, 0700)
			debug.SetPath(dir)
		}
	}

	p := tea.NewProgram(initialModel(*profile, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
