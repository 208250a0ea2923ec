package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"pantry-planner/internal/app"
	"pantry-planner/internal/clipper"
	"pantry-planner/internal/database"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/recommend"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	defaultPeople  = 2
	requestTimeout = 2 * time.Minute
)

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot answers Telegram updates on behalf of allow-listed users.
type Bot struct {
	api     sender
	app     *app.App
	log     *zap.SugaredLogger
	allowed []int64
	adminID int64
	now     func() time.Time
}

// NewBot authorizes against the Bot API and points its webhook at cfg.TelegramWebhookURL.
func NewBot(a *app.App, log *zap.SugaredLogger) (*Bot, error) {
	cfg := a.Config
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Infof("authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Infof("webhook set: %s", resp.Description)

	return newBot(api, a, log), nil
}

func newBot(api sender, a *app.App, log *zap.SugaredLogger) *Bot {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bot{
		api:     api,
		app:     a,
		log:     log,
		allowed: a.Config.TelegramAllowedUserIDs,
		adminID: a.Config.TelegramAdminID,
		now:     time.Now,
	}
}

// RegisterRoutes mounts the webhook and a health check.
func (b *Bot) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", b.handleWebhook)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.log.Warnf("error parsing update: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	go b.HandleUpdate(update)
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		if b.isAllowed(update.CallbackQuery.From) {
			b.handleCallbackQuery(ctx, update.CallbackQuery)
		}
	case update.Message != nil && update.Message.From != nil:
		if !b.isAllowed(update.Message.From) {
			b.log.Warnf("unauthorized access attempt from user %d (@%s)", update.Message.From.ID, update.Message.From.UserName)
			return
		}
		b.processMessage(ctx, update.Message)
	}
}

func (b *Bot) isAllowed(u *tgbotapi.User) bool {
	return u != nil && ((b.adminID != 0 && u.ID == b.adminID) || slices.Contains(b.allowed, u.ID))
}

// userID maps a Telegram account onto the application's user namespace.
func userID(u *tgbotapi.User) string {
	return "tg:" + strconv.FormatInt(u.ID, 10)
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg, text)
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "pantry":
		b.handlePantry(ctx, msg)
	case "add":
		b.handleAdd(ctx, msg, args)
	case "plan":
		b.handlePlan(ctx, msg, args)
	case "shopping":
		b.handleShopping(ctx, msg)
	case "suggest":
		if args == "last" {
			b.handleLastSuggestions(ctx, msg)
			return
		}
		b.handleRecommend(ctx, msg, app.SourceSuggestions, "")
	case "dataset":
		b.handleRecommend(ctx, msg, app.SourceDataset, "")
	case "rag":
		b.handleRecommend(ctx, msg, app.SourceRAG, args)
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "🤔 I did not understand that. Send /help for the list of commands.")
	}
}

const helpText = `🧺 *Pantry Planner*

/pantry - list your ingredients
/add 500 gram ayam #meat - add an ingredient
/plan [people] - plan next week
/shopping - shopping list for next week
/suggest - AI recipe ideas from your pantry
/suggest last - show the previous ideas again
/dataset - popular recipes you can cook
/rag [query] - similar recipes from the dataset
Send a recipe link to clip it.`

func (b *Bot) handlePantry(ctx context.Context, msg *tgbotapi.Message) {
	items, err := b.app.Ingredients.List(ctx, userID(msg.From))
	if err != nil {
		b.replyError(msg.Chat.ID, "Error loading pantry", err)
		return
	}
	b.reply(msg.Chat.ID, formatPantry(items, b.now()))
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message, args string) {
	it, err := parseAddArgs(args)
	if err != nil {
		b.reply(msg.Chat.ID, "✍️ Usage: /add 500 gram ayam #meat")
		return
	}
	created, err := b.app.Ingredients.Create(ctx, userID(msg.From), it)
	if err != nil {
		b.replyError(msg.Chat.ID, "Error adding ingredient", err)
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ Added %s %s *%s*", formatQty(created.Quantity), created.Unit, escape(created.Name)))
}

// parseAddArgs reads "<qty> <unit> <name> [#category]". Missing quantities count as one piece.
func parseAddArgs(args string) (ingredient.Ingredient, error) {
	category := ingredient.CategoryVegetables
	if i := strings.LastIndex(args, "#"); i >= 0 {
		c := ingredient.Category(strings.ToLower(strings.TrimSpace(args[i+1:])))
		if !slices.Contains(ingredient.Categories, c) {
			return ingredient.Ingredient{}, fmt.Errorf("unknown category %q", c)
		}
		category = c
		args = args[:i]
	}
	line := recipe.ParseIngredientLine(args)
	if line.Name == "" {
		return ingredient.Ingredient{}, errors.New("missing ingredient name")
	}
	unit := ingredient.Unit(line.Unit)
	if !slices.Contains(ingredient.Units, unit) {
		unit = ingredient.UnitPiece
	}
	return ingredient.Ingredient{Name: line.Name, Quantity: line.Quantity, Unit: unit, Category: category}, nil
}

func (b *Bot) handlePlan(ctx context.Context, msg *tgbotapi.Message, args string) {
	people := defaultPeople
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n < 1 || n > 20 {
			b.reply(msg.Chat.ID, "✍️ Usage: /plan 4 (people, 1 to 20)")
			return
		}
		people = n
	}

	sent, err := b.sendStatus(msg.Chat.ID, "🧑‍🍳 *Thinking...* \n(Matching your pantry and filling the week)")
	if err != nil {
		return
	}

	week := planner.NextMonday(b.now())
	plan, report, err := b.app.Planner.Generate(ctx, planner.Request{
		UserID:      userID(msg.From),
		WeekStart:   week,
		PeopleCount: people,
	})
	if err != nil {
		b.editError(msg.Chat.ID, sent.MessageID, "Error generating plan", err)
		return
	}

	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, formatPlan(plan, report))
	edit.ParseMode = tgbotapi.ModeMarkdown
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Save Plan", "save|"+plan.WeekStart),
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Discard", "discard|"+plan.WeekStart),
		),
	)
	edit.ReplyMarkup = &keyboard
	b.send(edit)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	action, week, ok := strings.Cut(query.Data, "|")
	if !ok || query.Message == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Debugf("failed to answer callback: %v", err)
	}
	chatID, messageID := query.Message.Chat.ID, query.Message.MessageID

	switch action {
	case "save":
		plan, err := b.app.Planner.Save(ctx, userID(query.From), week)
		if err != nil {
			b.editError(chatID, messageID, "Error saving plan", err)
			return
		}
		edit := tgbotapi.NewEditMessageText(chatID, messageID,
			fmt.Sprintf("✅ *Plan saved* for the week of %s (%d meals). Send /shopping for the list.", plan.WeekStart, plan.FilledSlots()))
		edit.ParseMode = tgbotapi.ModeMarkdown
		b.send(edit)
	case "discard":
		if err := b.app.Planner.Discard(ctx, userID(query.From), week); err != nil {
			b.editError(chatID, messageID, "Error discarding plan", err)
			return
		}
		b.send(tgbotapi.NewEditMessageText(chatID, messageID, "🗑️ Draft discarded."))
	}
}

func (b *Bot) handleShopping(ctx context.Context, msg *tgbotapi.Message) {
	week := planner.NextMonday(b.now()).Format(database.DateLayout)
	list, err := b.app.ShoppingList(ctx, userID(msg.From), week)
	if errors.Is(err, planner.ErrNotFound) {
		b.reply(msg.Chat.ID, "🗓️ No plan for next week yet. Send /plan first.")
		return
	}
	if err != nil {
		b.replyError(msg.Chat.ID, "Error building shopping list", err)
		return
	}
	b.reply(msg.Chat.ID, formatShopping(list))
}

func (b *Bot) handleRecommend(ctx context.Context, msg *tgbotapi.Message, source, query string) {
	sent, err := b.sendStatus(msg.Chat.ID, "🔎 *Looking for recipes...*")
	if err != nil {
		return
	}
	recs, err := b.app.Recommend(ctx, userID(msg.From), source, recommend.Filters{Limit: 5, Query: query})
	if err != nil {
		b.editError(msg.Chat.ID, sent.MessageID, "Error finding recipes", err)
		return
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, formatRecommendations(recs))
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
}

func (b *Bot) handleLastSuggestions(ctx context.Context, msg *tgbotapi.Message) {
	recs, err := b.app.LastSuggestions(ctx, userID(msg.From))
	if err != nil {
		b.replyError(msg.Chat.ID, "Error loading suggestions", err)
		return
	}
	b.reply(msg.Chat.ID, formatRecommendations(recs))
}

func (b *Bot) handleClipperRequest(ctx context.Context, msg *tgbotapi.Message, url string) {
	sent, err := b.sendStatus(msg.Chat.ID, "✂️ *Clipping recipe...* \n(Extracting and saving to your recipes)")
	if err != nil {
		return
	}
	rec, err := b.app.Clipper.ClipURL(ctx, userID(msg.From), url)
	if err != nil {
		b.editError(msg.Chat.ID, sent.MessageID, "Error clipping recipe", err)
		return
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, sent.MessageID, clipper.FormatSummary(*rec, url))
	edit.ParseMode = tgbotapi.ModeHTML
	b.send(edit)
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if b.adminID == 0 || msg.From.ID != b.adminID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	usage, err := b.app.Metrics.GetDailyUsage(7)
	if err != nil {
		b.replyError(msg.Chat.ID, "Error fetching metrics", err)
		return
	}
	feedback, err := b.app.Users.ListFeedback(ctx, 5)
	if err != nil {
		b.log.Warnf("failed to load feedback: %v", err)
	}
	health := metrics.GetSysHealth(filepath.Dir(b.app.Config.DatabasePath))
	b.reply(msg.Chat.ID, formatMetrics(usage, health, feedback))
}

func (b *Bot) sendStatus(chatID int64, text string) (tgbotapi.Message, error) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(m)
	if err != nil {
		b.log.Warnf("failed to send initial reply: %v", err)
	}
	return sent, err
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	b.send(m)
}

func (b *Bot) replyError(chatID int64, title string, err error) {
	b.log.Errorf("%s: %v", strings.ToLower(title), err)
	b.reply(chatID, errorText(title, err))
}

func (b *Bot) editError(chatID int64, messageID int, title string, err error) {
	b.log.Errorf("%s: %v", strings.ToLower(title), err)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, errorText(title, err))
	edit.ParseMode = tgbotapi.ModeMarkdown
	b.send(edit)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warnf("failed to send message: %v", err)
	}
}

func errorText(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr)
}
