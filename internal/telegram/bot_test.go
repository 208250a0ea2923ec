package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pantry-planner/internal/app"
	"pantry-planner/internal/config"
	"pantry-planner/internal/database"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shopping"
	"pantry-planner/internal/users"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	memberID = 42
	adminID  = 7
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func newTestBot(t *testing.T) (*Bot, *fakeSender) {
	t.Helper()
	a, err := app.New(context.Background(), &config.Config{
		DatabasePath:           database.MemoryPath,
		LLMProvider:            "gemini",
		VectorBackend:          "sqlite",
		KVBackend:              "memory",
		TelegramAllowedUserIDs: []int64{memberID},
		TelegramAdminID:        adminID,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	fake := &fakeSender{}
	b := newBot(fake, a, nil)
	b.now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	return b, fake
}

func command(from int64, text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: from},
		Chat:     &tgbotapi.Chat{ID: from},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestUnauthorizedUsersAreIgnored(t *testing.T) {
	b, fake := newTestBot(t)
	b.HandleUpdate(command(999, "/pantry"))
	assert.Empty(t, fake.texts())
}

func TestAddAndListPantry(t *testing.T) {
	b, fake := newTestBot(t)

	b.HandleUpdate(command(memberID, "/add 500 gram ayam #meat"))
	require.Len(t, fake.texts(), 1)
	assert.Contains(t, fake.texts()[0], "Added 500 gram *ayam*")

	items, err := b.app.Ingredients.List(context.Background(), "tg:42")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ingredient.CategoryMeat, items[0].Category)

	b.HandleUpdate(command(memberID, "/add"))
	assert.Contains(t, fake.texts()[1], "Usage")

	b.HandleUpdate(command(memberID, "/pantry"))
	assert.Contains(t, fake.texts()[2], "• 500 gram ayam")
}

func TestPlanSaveAndShopping(t *testing.T) {
	b, fake := newTestBot(t)

	b.HandleUpdate(command(memberID, "/shopping"))
	assert.Contains(t, fake.texts()[0], "No plan for next week")

	b.HandleUpdate(command(memberID, "/plan 3"))
	edit, ok := fake.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "2026-10-26, 3 people")
	assert.Contains(t, edit.Text, "Fallback 21")
	require.NotNil(t, edit.ReplyMarkup)
	saveData := edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData
	require.NotNil(t, saveData)
	assert.Equal(t, "save|2026-10-26", *saveData)

	b.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: memberID},
		Message: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: memberID}},
		Data:    *saveData,
	}})
	assert.Len(t, fake.requests, 1, "callback answered")
	assert.Contains(t, fake.last().(tgbotapi.EditMessageTextConfig).Text, "Plan saved")

	saved, err := b.app.Plans.Get(context.Background(), "tg:42", "2026-10-26")
	require.NoError(t, err)
	assert.Equal(t, 21, saved.FilledSlots())

	b.HandleUpdate(command(memberID, "/shopping"))
	assert.Contains(t, fake.texts()[len(fake.texts())-1], "🛒 *Shopping List*")
}

func TestPlanRejectsBadPeopleCount(t *testing.T) {
	b, fake := newTestBot(t)
	b.HandleUpdate(command(memberID, "/plan lots"))
	assert.Contains(t, fake.texts()[0], "Usage: /plan")
}

func TestMetricsIsAdminOnly(t *testing.T) {
	b, fake := newTestBot(t)

	b.HandleUpdate(command(memberID, "/metrics"))
	assert.Contains(t, fake.texts()[0], "Access Denied")

	b.HandleUpdate(command(adminID, "/metrics"))
	assert.Contains(t, fake.texts()[1], "Usage & Health Report")
	assert.Contains(t, fake.texts()[1], "_No data yet_")
	assert.NotContains(t, fake.texts()[1], "Latest Feedback")

	_, err := b.app.Users.AddFeedback(context.Background(), users.Feedback{UserID: "tg:42", Rating: 4, Message: "mantap"})
	require.NoError(t, err)
	b.HandleUpdate(command(adminID, "/metrics"))
	assert.Contains(t, fake.texts()[2], "Latest Feedback")
	assert.Contains(t, fake.texts()[2], "⭐⭐⭐⭐ tg:42: mantap")
}

func TestSuggestLastWithoutHistory(t *testing.T) {
	b, fake := newTestBot(t)
	b.HandleUpdate(command(memberID, "/suggest last"))
	texts := fake.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "No matching recipes found")
}

func TestSuggestWithoutModelReportsError(t *testing.T) {
	b, fake := newTestBot(t)
	b.HandleUpdate(command(memberID, "/suggest"))
	texts := fake.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "Error finding recipes")
	assert.Contains(t, texts[1], "no text model configured")
}

func TestWebhookRejectsGarbage(t *testing.T) {
	b, _ := newTestBot(t)
	r := chi.NewRouter()
	b.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", rec.Body.String())
}

func TestParseAddArgs(t *testing.T) {
	tests := []struct {
		in      string
		want    ingredient.Ingredient
		wantErr bool
	}{
		{"500 gram ayam #meat", ingredient.Ingredient{Name: "ayam", Quantity: 500, Unit: ingredient.UnitGram, Category: ingredient.CategoryMeat}, false},
		{"3 siung bawang putih", ingredient.Ingredient{Name: "bawang putih", Quantity: 3, Unit: ingredient.UnitClove, Category: ingredient.CategoryVegetables}, false},
		{"tempe", ingredient.Ingredient{Name: "tempe", Quantity: 1, Unit: ingredient.UnitPiece, Category: ingredient.CategoryVegetables}, false},
		{"1 kg beras #rocks", ingredient.Ingredient{}, true},
		{"", ingredient.Ingredient{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAddArgs(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPlan(t *testing.T) {
	plan := planner.NewWeeklyPlan("u1", time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), 2, 2)
	require.NoError(t, plan.SetSlot(0, 0, &recipe.Recipe{Name: "Nasi_Goreng", PrepTime: 10, CookTime: 15}))
	require.NoError(t, plan.SetSlot(1, 1, &recipe.Recipe{Name: "Sayur Asem", PrepTime: 5, CookTime: 20}))

	out := formatPlan(plan, planner.Report{Owned: 2, Empty: 12, Warnings: []string{"AI suggestions unavailable"}})
	assert.Contains(t, out, "📅 *Weekly Meal Plan*")
	assert.Contains(t, out, `*Monday*: Nasi\_Goreng · _empty_`)
	assert.Contains(t, out, "*Tuesday*: _empty_ · Sayur Asem")
	assert.Contains(t, out, "⏱ *Total Prep:* 50 mins")
	assert.Contains(t, out, "Empty 12")
	assert.Contains(t, out, "⚠️ _AI suggestions unavailable_")
}

func TestFormatShopping(t *testing.T) {
	out := formatShopping(shopping.List{
		ToBuy:       []shopping.Item{{Name: "ayam", Quantity: 100, Unit: "gram"}},
		AlreadyHave: []shopping.Item{{Name: "bawang putih"}},
	})
	assert.Contains(t, out, "• 100 gram ayam")
	assert.Contains(t, out, "✅ *Already have*\n• bawang putih")

	assert.Contains(t, formatShopping(shopping.List{}), "Everything is already in your pantry")
}
