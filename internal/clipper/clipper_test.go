package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- Mocks ---
type MockRecipeStore struct {
	Created     *recipe.Recipe
	ShouldError bool
}

func (m *MockRecipeStore) Create(ctx context.Context, userID string, rec recipe.Recipe) (*recipe.Recipe, error) {
	if m.ShouldError {
		return nil, fmt.Errorf("mock error")
	}
	rec.ID = "123"
	rec.UserID = userID
	m.Created = &rec
	return m.Created, nil
}

type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

func serve(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
}

type failingRecorder struct{}

func (failingRecorder) RecordMeta(shared.AgentMeta) error { return fmt.Errorf("metrics table locked") }

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := serve(`
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<h1>Tasty Recipe</h1>
				<div class="ads">Buy stuff!</div>
				<p>Mix flour and water.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`)
	defer ts.Close()

	c := NewClipper(nil, &MockTextGenerator{}, &MockRecipeStore{}, nil, nil)
	cleanText, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.NotContains(t, cleanText, "alert('bad')")
	assert.NotContains(t, cleanText, "Buy stuff!")
	assert.NotContains(t, cleanText, "Copyright 2024")
	assert.Contains(t, cleanText, "Tasty Recipe Mix flour and water.")
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	c := NewClipper(nil, &MockTextGenerator{}, &MockRecipeStore{}, nil, nil)
	_, err := c.ClipURL(context.Background(), "u1", ts.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestClipURL_Success(t *testing.T) {
	aiResponse := "Sure!\n```json\n" + `{"title": "Mock Pie", "ingredients": ["2 buah apel", "200 gr tepung"], "steps": ["Bake"], "prep_time": "15 mins", "cook_time": "1 hour", "servings": "8 people"}` + "\n```"
	store := &MockRecipeStore{}
	ai := &MockTextGenerator{Response: aiResponse}
	c := NewClipper(nil, ai, store, nil, nil)

	ts := serve("<html><body>Some Content</body></html>")
	defer ts.Close()

	rec, err := c.ClipURL(context.Background(), "u1", ts.URL)
	require.NoError(t, err)
	require.NotNil(t, store.Created)

	assert.Equal(t, "Mock Pie", rec.Name)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, recipe.ProvenanceOwned, rec.Provenance)
	assert.Equal(t, "clip:"+ts.URL, rec.SourceRef)
	assert.Equal(t, 15, rec.PrepTime)
	assert.Equal(t, 60, rec.CookTime)
	assert.Equal(t, 8, rec.Servings)
	assert.Equal(t, []recipe.Ingredient{{Name: "apel", Quantity: 2, Unit: "piece"}, {Name: "tepung", Quantity: 200, Unit: "gram"}}, rec.Ingredients)
	assert.Contains(t, ai.Prompt, "Some Content")
}

func TestClipURL_LogsMetricsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ai := &MockTextGenerator{Response: `{"title": "Mock Pie", "ingredients": ["2 buah apel"], "steps": ["Bake"]}`}
	store := &MockRecipeStore{}
	c := NewClipper(nil, ai, store, failingRecorder{}, zap.New(core).Sugar())

	ts := serve("<html><body>Pie</body></html>")
	defer ts.Close()

	_, err := c.ClipURL(context.Background(), "u1", ts.URL)
	require.NoError(t, err)
	require.NotNil(t, store.Created)

	entries := logs.FilterMessageSnippet("failed to record clipper metrics").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "metrics table locked")
}

func TestClipURL_Failures(t *testing.T) {
	ts := serve("<html><body>Nothing here</body></html>")
	defer ts.Close()

	tests := []struct {
		name  string
		ai    *MockTextGenerator
		store *MockRecipeStore
		want  string
	}{
		{"model error", &MockTextGenerator{ShouldError: true}, &MockRecipeStore{}, "ai extraction failed"},
		{"no json", &MockTextGenerator{Response: "I could not find a recipe."}, &MockRecipeStore{}, "failed to parse AI response"},
		{"empty recipe", &MockTextGenerator{Response: `{"title": "", "ingredients": []}`}, &MockRecipeStore{}, "no recipe found"},
		{"store error", &MockTextGenerator{Response: `{"title": "Pie", "ingredients": ["1 apel"]}`}, &MockRecipeStore{ShouldError: true}, "failed to save"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClipper(nil, tt.ai, tt.store, nil, nil)
			_, err := c.ClipURL(context.Background(), "u1", ts.URL)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseMinutes(t *testing.T) {
	tests := map[string]int{
		"30 mins":        30,
		"1 hour":         60,
		"1 jam 15 menit": 75,
		"45":             45,
		"":               0,
		"about 2 hours":  120,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseMinutes(in), in)
	}
}

func TestFormatSummary(t *testing.T) {
	r := recipe.Recipe{
		Name:         "Pancakes & Syrup",
		Servings:     2,
		PrepTime:     5,
		CookTime:     10,
		Ingredients:  []recipe.Ingredient{{Name: "flour", Quantity: 0.5, Unit: "cup"}},
		Instructions: []string{"Mix", "Fry"},
	}
	out := FormatSummary(r, "http://test.com")

	for _, sub := range []string{
		"<b>Pancakes &amp; Syrup</b>",
		"Imported from: <a href=\"http://test.com\">http://test.com</a>",
		"• 0.5 cup flour",
		"2. Fry",
		"<b>Total Time:</b> 15 min | <b>Servings:</b> 2",
	} {
		assert.Contains(t, out, sub)
	}
}
