package telegram

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "lane-pilot/internal/application"
	"lane-pilot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я показываю состояние автопилота машинки.

📋 Команды:
/status — текущий угол, линии и счётчики
/help — справка`

	msgHelp = `ℹ️ Что показывает /status:

• сколько кадров обработано и сколько с ошибкой
• найдены ли левая и правая линии
• радиус поворота и смещение от центра полосы
• угол до и после сглаживания и команду контроллеру
• последний ответ контроллера`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgStatusError    = "⚠️ Не удалось получить состояние. Попробуйте позже."
	msgNoFrames       = "⏳ Кадров пока не было."
)

// Bot представляет Telegram-бота
type Bot struct {
	api       *tgbotapi.BotAPI
	telemetry *app.TelemetryService
}

// NewBot создаёт нового бота
func NewBot(token string, telemetry *app.TelemetryService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:       api,
		telemetry: telemetry,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
		return
	}

	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "status":
		snap, err := b.telemetry.Snapshot(ctx)
		if err != nil {
			log.Printf("Error getting telemetry: %v", err)
			b.sendMessage(msg.Chat.ID, msgStatusError)
			return
		}
		b.sendMessage(msg.Chat.ID, FormatStatus(snap, time.Now()))

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// FormatStatus текст ответа на /status
func FormatStatus(t entity.Telemetry, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🕒 Работает: %s\n", now.Sub(t.StartedAt).Truncate(time.Second))
	fmt.Fprintf(&sb, "🎞 Кадров: %d, с ошибкой: %d\n", t.Frames, t.FrameFailures)
	fmt.Fprintf(&sb, "📡 Неотправленных команд: %d\n", t.SendFailures)

	if t.LastResult == nil {
		sb.WriteString(msgNoFrames + "\n")
	} else {
		r := t.LastResult
		fmt.Fprintf(&sb, "\nКадр #%d (%s)\n", r.Index, strategyName(r.Strategy))
		fmt.Fprintf(&sb, "Линии: левая %s, правая %s\n", mark(r.LeftDetected), mark(r.RightDetected))
		fmt.Fprintf(&sb, "Радиус: %s\n", formatRadius(r.Geometry))
		if r.Geometry.OffsetAvailable() {
			fmt.Fprintf(&sb, "Смещение: %.2f м\n", r.Geometry.OffsetMeters)
		} else {
			sb.WriteString("Смещение: нет данных\n")
		}
		fmt.Fprintf(&sb, "Угол: %.1f° → %.1f°\n", r.RawAngle, r.SmoothedAngle)
		fmt.Fprintf(&sb, "Команда: угол %d°, скорость %d, режим %s\n",
			r.Command.AngleDegrees, r.Command.Speed, r.Command.Mode)
	}

	if t.LastDevice != nil {
		fmt.Fprintf(&sb, "\nКонтроллер: %s", t.LastDevice.Raw)
		if t.LastDevice.Fail != "" {
			fmt.Fprintf(&sb, " (%s)", t.LastDevice.Fail)
		}
		sb.WriteString("\n")
	}
	if t.LastError != "" {
		fmt.Fprintf(&sb, "\n⚠️ Последняя ошибка: %s\n", t.LastError)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatRadius(g entity.LaneGeometry) string {
	switch {
	case !g.CurvatureAvailable:
		return "нет данных"
	case math.IsInf(g.RadiusMeters, 0):
		return "прямая"
	default:
		return fmt.Sprintf("%.0f м", g.RadiusMeters)
	}
}

func strategyName(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
