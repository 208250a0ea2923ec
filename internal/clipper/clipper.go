package clipper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pantry-planner/internal/llm"
	"pantry-planner/internal/recipe"
	"pantry-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// page text sent to the model is cut to this many bytes
const maxPageText = 12000

// RecipeCreator stores a clipped recipe for the user.
type RecipeCreator interface {
	Create(ctx context.Context, userID string, rec recipe.Recipe) (*recipe.Recipe, error)
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
	recipes    RecipeCreator
	recorder   shared.MetaRecorder
	log        *zap.SugaredLogger
}

// ExtractedRecipe represents the data structured by the AI.
type ExtractedRecipe struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	PrepTime    string   `json:"prep_time"`
	CookTime    string   `json:"cook_time"`
	Servings    string   `json:"servings"`
}

// NewClipper creates a new Clipper instance. A nil httpClient uses a 15 second timeout client.
func NewClipper(httpClient *http.Client, textGen llm.TextGenerator, recipes RecipeCreator, recorder shared.MetaRecorder, log *zap.SugaredLogger) *Clipper {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if recorder == nil {
		recorder = shared.NopRecorder{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Clipper{
		httpClient: httpClient,
		textGen:    textGen,
		recipes:    recipes,
		recorder:   recorder,
		log:        log,
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, and saves it as the user's own recipe.
func (c *Clipper) ClipURL(ctx context.Context, userID, url string) (*recipe.Recipe, error) {
	if c.textGen == nil {
		return nil, fmt.Errorf("clipper: %w", llm.ErrNoTextModel)
	}

	// 1. Fetch and Clean HTML
	content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	// 2. Extract Data
	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "description": "One sentence summary",
  "ingredients": ["500 gram ayam", "3 siung bawang putih", ...],
  "steps": ["Step 1 description", "Step 2 description", ...],
  "prep_time": "e.g. 30 mins",
  "cook_time": "e.g. 1 hour",
  "servings": "e.g. 4 people"
}
Write every ingredient as quantity, unit and name.

Page Content:
%s
`, content)

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}
	if err := c.recorder.RecordMeta(shared.AgentMeta{AgentName: "clipper", Usage: resp.Usage, Latency: time.Since(start)}); err != nil {
		c.log.Warnf("failed to record clipper metrics: %v", err)
	}

	var extracted ExtractedRecipe
	if err := llm.ParseModelJSON(resp.Content, &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if strings.TrimSpace(extracted.Title) == "" || len(extracted.Ingredients) == 0 {
		return nil, fmt.Errorf("no recipe found at %s", url)
	}

	// 3. Save to the recipe store
	saved, err := c.recipes.Create(ctx, userID, toRecipe(extracted, url))
	if err != nil {
		return nil, fmt.Errorf("failed to save clipped recipe: %w", err)
	}
	return saved, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, noscript, form, ads, .ads, #ads, .comments").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return text, nil
}

func toRecipe(r ExtractedRecipe, sourceURL string) recipe.Recipe {
	rec := recipe.Recipe{
		Provenance:   recipe.ProvenanceOwned,
		SourceRef:    "clip:" + sourceURL,
		Name:         strings.TrimSpace(r.Title),
		Description:  strings.TrimSpace(r.Description),
		PrepTime:     parseMinutes(r.PrepTime),
		CookTime:     parseMinutes(r.CookTime),
		Servings:     leadingInt(r.Servings),
		Instructions: r.Steps,
		Tags:         []string{"clipped"},
	}
	for _, line := range r.Ingredients {
		if ing := recipe.ParseIngredientLine(line); ing.Name != "" {
			rec.Ingredients = append(rec.Ingredients, ing)
		}
	}
	return rec
}

// parseMinutes reads durations such as "30 mins", "1 hour" or "1 jam 15 menit".
func parseMinutes(s string) int {
	total, pending := 0, 0
	for _, f := range strings.Fields(strings.ToLower(s)) {
		if n, err := strconv.Atoi(f); err == nil {
			pending = n
			continue
		}
		switch {
		case strings.HasPrefix(f, "h"), strings.HasPrefix(f, "jam"):
			total += pending * 60
			pending = 0
		case strings.HasPrefix(f, "m"):
			total += pending
			pending = 0
		}
	}
	return total + pending
}

func leadingInt(s string) int {
	for _, f := range strings.Fields(s) {
		if n, err := strconv.Atoi(f); err == nil {
			return n
		}
	}
	return 0
}

// FormatSummary renders a recipe as Telegram-flavoured HTML.
func FormatSummary(r recipe.Recipe, sourceURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(r.Name))
	if sourceURL != "" {
		fmt.Fprintf(&sb, "<i>Imported from: <a href=\"%s\">%s</a></i>\n", html.EscapeString(sourceURL), html.EscapeString(sourceURL))
	}

	sb.WriteString("\n<b>Ingredients</b>\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "• %s %s %s\n", strconv.FormatFloat(ing.Quantity, 'f', -1, 64), html.EscapeString(ing.Unit), html.EscapeString(ing.Name))
	}

	sb.WriteString("\n<b>Instructions</b>\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, html.EscapeString(step))
	}

	fmt.Fprintf(&sb, "\n<b>Total Time:</b> %d min | <b>Servings:</b> %d", r.TotalTime(), r.Servings)
	return sb.String()
}
