// Package gateway is the Telegram front-end: it collects video links from
// users, turns them into watch rooms and exposes the room controls as an
// inline keyboard.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kinoroom/kinoroom/internal/embed"
	"github.com/kinoroom/kinoroom/internal/room"
	"github.com/kinoroom/kinoroom/internal/ws"
	"github.com/kinoroom/kinoroom/pkg/logger"
)

const (
	greetingReply = "Hi! I create shared watch rooms \U0001F440\n\n- /create — start a new room"
	askLinkReply  = "Send a video link (for example, YouTube):"
	idleReply     = "I wasn't expecting a link. Send /create to start a new room."
)

type Gateway struct {
	bot      *tgbotapi.BotAPI
	registry *room.Registry
	manager  *ws.Manager
	baseURL  string
	log      *logger.Logger

	// Per-user conversation state: present in the set means AwaitingLink,
	// absent means Idle
	mu       sync.Mutex
	awaiting map[int64]struct{}
}

func New(token, baseURL string, registry *room.Registry, manager *ws.Manager, log *logger.Logger) (*Gateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	return &Gateway{
		bot:      bot,
		registry: registry,
		manager:  manager,
		baseURL:  baseURL,
		log:      log,
		awaiting: make(map[int64]struct{}),
	}, nil
}

// Run processes updates until the context is canceled.
func (g *Gateway) Run(ctx context.Context) error {
	g.log.Info("telegram gateway started", "bot", g.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := g.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			g.bot.StopReceivingUpdates()
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.handleUpdate(update)
		}
	}
}

func (g *Gateway) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		g.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		g.handleMessage(update.Message)
	}
}

func (g *Gateway) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			g.reply(msg.Chat.ID, greetingReply, nil)
		case "create":
			g.setAwaiting(msg.From.ID)
			g.reply(msg.Chat.ID, askLinkReply, nil)
		}
		return
	}

	text, keyboard := g.consumeLink(msg.From.ID, msg.Text)
	g.reply(msg.Chat.ID, text, keyboard)
}

// consumeLink drives the per-user conversation state machine. It is the
// pure part of the gateway: no Telegram I/O happens here.
func (g *Gateway) consumeLink(userID int64, text string) (string, *tgbotapi.InlineKeyboardMarkup) {
	if !g.clearAwaiting(userID) {
		return idleReply, nil
	}

	embedURL, err := embed.Normalize(text)
	if err != nil {
		return "❌ Video is not supported or the link is malformed.\n" +
			embed.SupportedProviders(), nil
	}

	rm := g.registry.Create(fmt.Sprintf("tg:%d", userID), embedURL)
	roomURL := g.baseURL + "/room/" + rm.ID

	g.log.Info("room created via telegram",
		"room_id", rm.ID,
		"user_id", userID,
	)

	kb := controlKeyboard(rm.ID)
	reply := "Room created!\n\n" +
		"Watch link (open it yourself and/or share with friends):\n" + roomURL +
		"\n\nControls are below:"
	return reply, &kb
}

func (g *Gateway) handleCallback(cq *tgbotapi.CallbackQuery) {
	answer := func(text string) {
		if _, err := g.bot.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
			g.log.Warn("failed to answer callback", "error", err)
		}
	}

	cmdStr, roomID, ok := strings.Cut(cq.Data, ":")
	if !ok {
		answer("Malformed command")
		return
	}

	cmd, err := ws.ParseCommand(cmdStr)
	if err != nil {
		answer("Malformed command")
		return
	}

	if err := g.manager.Dispatch(roomID, cmd); err != nil {
		answer("Room not found.")
		return
	}

	answer(fmt.Sprintf("Sent %s to room %s", strings.ToUpper(cmdStr), roomID))
}

func (g *Gateway) reply(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := g.bot.Send(msg); err != nil {
		g.log.Warn("failed to send telegram message", "chat_id", chatID, "error", err)
	}
}

func (g *Gateway) setAwaiting(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.awaiting[userID] = struct{}{}
}

// clearAwaiting reports whether the user was in AwaitingLink and always
// returns them to Idle.
func (g *Gateway) clearAwaiting(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.awaiting[userID]
	delete(g.awaiting, userID)
	return ok
}

func controlKeyboard(roomID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Play", "play:"+roomID),
			tgbotapi.NewInlineKeyboardButtonData("⏸ Pause", "pause:"+roomID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Close", "close:"+roomID),
		),
	)
}
