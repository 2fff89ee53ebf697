package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"namesmith/internal/config"
	"namesmith/internal/domain"
	"namesmith/internal/export"
	"namesmith/internal/generator"
)

// generationTimeout bounds one /generate including all domain probes.
const generationTimeout = 2 * time.Minute

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot     *tgbot.Bot
	cfg     config.Config
	service *Service
	log     logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(cfg config.Config, service *Service, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	h := &Handler{
		cfg:     cfg,
		service: service,
		log:     log,
	}

	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b

	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// registerHandlers sets up the command router.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/", tgbot.MatchTypePrefix, h.commandHandler)
	h.log.Info("Registered command handler")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) commandHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message
	cmd, args := splitCommand(msg.Text)
	log := h.log.WithFields(logrus.Fields{
		"user_id": msg.From.ID,
		"command": cmd,
	})
	log.Info("Received command")

	if cmd == "/export" {
		h.handleExport(ctx, b, msg, args, log)
		return
	}

	reply := h.dispatch(ctx, msg.From.ID, cmd, args, log)
	h.send(ctx, b, msg.Chat.ID, reply, log)
}

// dispatch runs one command and returns the text to send back.
func (h *Handler) dispatch(ctx context.Context, userID int64, cmd string, args []string, log logrus.FieldLogger) string {
	switch cmd {
	case "/start":
		return "Welcome to NameSmith! Send /generate <category> to get five business name ideas with domain estimates.\n\n" + helpText
	case "/help":
		return helpText
	case "/generate":
		return h.generate(ctx, userID, args, log)
	case "/list":
		st, err := h.service.State(ctx, userID)
		if err != nil {
			return h.failure(err, log)
		}
		return formatList("Your names", parseListArgs(args).Apply(st.GeneratedNames))
	case "/favorites":
		st, err := h.service.State(ctx, userID)
		if err != nil {
			return h.failure(err, log)
		}
		all := append(append([]domain.Candidate{}, st.GeneratedNames...), st.ArchivedNames...)
		return formatList("Favorites", domain.Filter{FavoritesOnly: true}.Apply(all))
	case "/archived":
		st, err := h.service.State(ctx, userID)
		if err != nil {
			return h.failure(err, log)
		}
		return formatList("Archived", st.ArchivedNames)
	case "/fav", "/archive", "/restore", "/delete":
		if len(args) != 1 {
			return fmt.Sprintf("usage: %s <id>", cmd)
		}
		return h.lifecycle(ctx, userID, cmd, args[0], log)
	case "/rate":
		ref, rating, comment, err := parseRateArgs(args)
		if err != nil {
			return err.Error()
		}
		c, err := h.service.Rate(ctx, userID, ref, rating, comment)
		if err != nil {
			return h.failure(err, log)
		}
		return fmt.Sprintf("Rated %s %d/%d.", c.Name, c.Rating, domain.MaxRating)
	case "/darkmode":
		on, err := parseOnOff(args)
		if err != nil {
			return err.Error()
		}
		if err := h.service.SetDarkMode(ctx, userID, on); err != nil {
			return h.failure(err, log)
		}
		if on {
			return "Dark mode enabled."
		}
		return "Dark mode disabled."
	case "/reset":
		if err := h.service.Reset(ctx, userID); err != nil {
			return h.failure(err, log)
		}
		return "All your names have been deleted."
	}
	return "Unknown command. Send /help to see what I can do."
}

func (h *Handler) generate(ctx context.Context, userID int64, args []string, log logrus.FieldLogger) string {
	params, err := parseGenerateArgs(args)
	if err != nil {
		return "Please tell me the category, e.g. /generate fintech style=playful length=short"
	}

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	batch, err := h.service.Generate(genCtx, userID, params)
	switch {
	case errors.Is(err, ErrGenerationInFlight):
		return "Still working on your previous request, hang on."
	case generator.IsServiceError(err):
		log.WithError(err).Warn("Generation service failed")
		return "The name generator is unavailable right now. Please try again in a moment."
	case err != nil:
		return h.failure(err, log)
	}
	return formatBatch(batch)
}

func (h *Handler) lifecycle(ctx context.Context, userID int64, cmd, ref string, log logrus.FieldLogger) string {
	var (
		c   domain.Candidate
		err error
	)
	switch cmd {
	case "/fav":
		c, err = h.service.ToggleFavorite(ctx, userID, ref)
	case "/archive":
		c, err = h.service.Archive(ctx, userID, ref)
	case "/restore":
		c, err = h.service.Restore(ctx, userID, ref)
	case "/delete":
		c, err = h.service.Delete(ctx, userID, ref)
	}
	if err != nil {
		return h.failure(err, log)
	}

	switch cmd {
	case "/fav":
		if c.IsFavorite {
			return fmt.Sprintf("Added %s to favorites.", c.Name)
		}
		return fmt.Sprintf("Removed %s from favorites.", c.Name)
	case "/archive":
		return fmt.Sprintf("Archived %s.", c.Name)
	case "/restore":
		return fmt.Sprintf("Restored %s.", c.Name)
	}
	return fmt.Sprintf("Deleted %s.", c.Name)
}

// failure turns an error into a user-facing message.
func (h *Handler) failure(err error, log logrus.FieldLogger) string {
	switch {
	case errors.Is(err, domain.ErrCandidateNotFound):
		return "I can't find a name with that id."
	case errors.Is(err, domain.ErrAmbiguousCandidate):
		return "That id matches more than one name, please use more characters."
	case errors.Is(err, domain.ErrInvalidRating):
		return "Ratings go from 0 to 5."
	case errors.Is(err, domain.ErrInvalidParams):
		return err.Error()
	}
	log.WithError(err).Error("Command failed")
	return "Something went wrong, please try again."
}

func (h *Handler) handleExport(ctx context.Context, b *tgbot.Bot, msg *models.Message, args []string, log logrus.FieldLogger) {
	if len(args) == 0 {
		h.send(ctx, b, msg.Chat.ID, "usage: /export csv|txt|pdf [archived]", log)
		return
	}
	format, err := export.ParseFormat(args[0])
	if err != nil {
		h.send(ctx, b, msg.Chat.ID, err.Error(), log)
		return
	}
	archived := len(args) > 1 && args[1] == "archived"

	doc, err := h.service.Export(ctx, msg.From.ID, format, archived)
	if err != nil {
		h.send(ctx, b, msg.Chat.ID, h.failure(err, log), log)
		return
	}

	_, err = b.SendDocument(ctx, &tgbot.SendDocumentParams{
		ChatID:   msg.Chat.ID,
		Document: &models.InputFileUpload{Filename: doc.Filename, Data: bytes.NewReader(doc.Data)},
	})
	if err != nil {
		log.WithError(err).Error("Failed to send export document")
	}
}

func (h *Handler) send(ctx context.Context, b *tgbot.Bot, chatID int64, text string, log logrus.FieldLogger) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		log.WithError(err).Error("Failed to send message")
	}
}

func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.log.WithFields(logrus.Fields{
		"user_id": update.Message.Chat.ID,
		"text":    update.Message.Text,
	}).Debug("Received non-command message")

	h.send(ctx, b, update.Message.Chat.ID, "Send /generate <category> to get name ideas, or /help for everything else.", h.log)
}
