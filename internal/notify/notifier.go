// Package notify turns fan-out recipient lists into stored notifications and
// pushes them over the live channels.
package notify

import (
	"pyra-drive/internal/api/websocket"
	"pyra-drive/internal/authz"
	"pyra-drive/internal/bot"
	"pyra-drive/internal/model"
	"pyra-drive/internal/store"

	"go.uber.org/zap"
)

// Notifier delivers one notification per recipient: a database record
// always, a websocket push when the recipient is connected, and a Telegram
// message when they bound a chat. Delivery failures are logged and dropped;
// notifications are best effort.
type Notifier struct {
	notifications *store.Notifications
	users         *store.Users
	hub           *websocket.EventHub
	bot           *bot.BotHandler // nil when no bot token is configured
	log           *zap.Logger
}

func NewNotifier(notifications *store.Notifications, users *store.Users, hub *websocket.EventHub, b *bot.BotHandler, log *zap.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		users:         users,
		hub:           hub,
		bot:           b,
		log:           log,
	}
}

// Send notifies one recipient about an event caused by source. The acting
// principal never notifies themselves.
func (n *Notifier) Send(source authz.Snapshot, recipient, ntype, title, message, targetPath string) {
	if recipient == source.Username {
		return
	}

	record := &model.Notification{
		Recipient:         recipient,
		Type:              ntype,
		Title:             title,
		Message:           message,
		SourceUsername:    source.Username,
		SourceDisplayName: source.DisplayName,
		TargetPath:        targetPath,
	}
	if err := n.notifications.Create(record); err != nil {
		n.log.Error("failed to store notification",
			zap.String("recipient", recipient), zap.Error(err))
		return
	}

	if n.hub != nil {
		n.hub.Push(recipient, websocket.Event{
			Type:       ntype,
			Title:      title,
			Message:    message,
			TargetPath: targetPath,
			Source:     source.Username,
		})
	}

	if n.bot != nil {
		user, err := n.users.ByUsername(recipient)
		if err == nil && user.TelegramID != 0 {
			if err := n.bot.SendNotification(user.TelegramID, title, message); err != nil {
				n.log.Warn("telegram delivery failed",
					zap.String("recipient", recipient), zap.Error(err))
			}
		}
	}
}

// Broadcast sends the same notification to every username in recipients.
func (n *Notifier) Broadcast(source authz.Snapshot, recipients []string, ntype, title, message, targetPath string) {
	for _, recipient := range recipients {
		n.Send(source, recipient, ntype, title, message, targetPath)
	}
}
