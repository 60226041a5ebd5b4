package bot

import (
	"fmt"
	"time"

	"gopkg.in/telebot.v3"
)

// BotHandler delivers workspace notifications over Telegram for users who
// bound a chat to their account.
type BotHandler struct {
	Bot       *telebot.Bot
	WebAppURL string // URL where the frontend is hosted
}

// NewBotHandler initializes and returns a new BotHandler
func NewBotHandler(token, webAppURL string) (*BotHandler, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	handler := &BotHandler{
		Bot:       b,
		WebAppURL: webAppURL,
	}

	handler.setupHandlers()
	return handler, nil
}

func (h *BotHandler) setupHandlers() {
	h.Bot.Handle("/start", h.handleStart)
}

// handleStart responds to the /start command with the chat id the user needs
// to bind their account, plus a Web App button when a URL is configured.
func (h *BotHandler) handleStart(c telebot.Context) error {
	message := fmt.Sprintf(
		"Welcome to Pyra Drive, %s!\nYour chat ID is %d. Enter it in your profile settings to receive notifications here.",
		c.Sender().FirstName, c.Sender().ID,
	)

	if h.WebAppURL == "" {
		return c.Send(message)
	}

	webAppButton := telebot.ReplyMarkup{
		InlineKeyboard: [][]telebot.InlineButton{
			{
				telebot.InlineButton{
					Text: "Open Pyra Drive",
					WebApp: &telebot.WebApp{
						URL: h.WebAppURL,
					},
				},
			},
		},
	}
	return c.Send(message, &webAppButton)
}

// SendNotification pushes one notification to a bound chat.
func (h *BotHandler) SendNotification(chatID int64, title, message string) error {
	text := title
	if message != "" {
		text += "\n" + message
	}
	_, err := h.Bot.Send(&telebot.User{ID: chatID}, text)
	return err
}

// Start starts the bot poller. Blocks; run it in a goroutine.
func (h *BotHandler) Start() {
	h.Bot.Start()
}
