package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pantry-planner/internal/database"
	"pantry-planner/internal/ingredient"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"
	"pantry-planner/internal/recommend"
	"pantry-planner/internal/shopping"
	"pantry-planner/internal/users"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// expiry warnings cover this window
const expiringWindow = 3 * 24 * time.Hour

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func formatPantry(items []ingredient.Ingredient, now time.Time) string {
	if len(items) == 0 {
		return "🧺 Your pantry is empty. Add something with /add 500 gram ayam #meat"
	}
	var sb strings.Builder
	sb.WriteString("🧺 *Your Pantry*\n\n")
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("• %s %s %s", formatQty(it.Quantity), it.Unit, escape(it.Name)))
		if it.ExpiresWithin(now, expiringWindow) {
			sb.WriteString(fmt.Sprintf(" ⚠️ _expires %s_", it.ExpiryDate.Format(database.DateLayout)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatPlan(plan *planner.WeeklyPlan, report planner.Report) string {
	var pb strings.Builder
	pb.WriteString(fmt.Sprintf("📅 *Weekly Meal Plan* (%s, %d people)\n\n", plan.WeekStart, plan.PeopleCount))

	totalPrep := 0
	for _, day := range plan.Days {
		name := day.Date
		if t, err := time.Parse(database.DateLayout, day.Date); err == nil {
			name = t.Weekday().String()
		}
		var meals []string
		for _, m := range day.Meals[:plan.SlotsPerDay] {
			if m == nil {
				meals = append(meals, "_empty_")
				continue
			}
			meals = append(meals, escape(m.Name))
			totalPrep += m.TotalTime()
		}
		pb.WriteString(fmt.Sprintf("*%s*: %s\n", name, strings.Join(meals, " · ")))
	}

	pb.WriteString(fmt.Sprintf("\n⏱ *Total Prep:* %d mins\n", totalPrep))
	pb.WriteString(fmt.Sprintf("📦 Owned %d · Dataset %d · AI %d · Fallback %d", report.Owned, report.Dataset, report.AI, report.Fallback))
	if report.Empty > 0 {
		pb.WriteString(fmt.Sprintf(" · Empty %d", report.Empty))
	}
	pb.WriteString("\n")
	for _, w := range report.Warnings {
		pb.WriteString(fmt.Sprintf("⚠️ _%s_\n", escape(w)))
	}
	return pb.String()
}

func formatShopping(list shopping.List) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(list.ToBuy) == 0 {
		sb.WriteString("_Everything is already in your pantry._\n")
	}
	for _, item := range list.ToBuy {
		sb.WriteString(fmt.Sprintf("• %s %s %s\n", formatQty(item.Quantity), escape(item.Unit), escape(item.Name)))
	}
	if len(list.AlreadyHave) > 0 {
		sb.WriteString("\n✅ *Already have*\n")
		for _, item := range list.AlreadyHave {
			sb.WriteString(fmt.Sprintf("• %s\n", escape(item.Name)))
		}
	}
	return sb.String()
}

func formatRecommendations(recs []recommend.Recommendation) string {
	if len(recs) == 0 {
		return "🤷 No matching recipes found."
	}
	var sb strings.Builder
	sb.WriteString("🍽️ *Recipe Ideas*\n\n")
	for i, r := range recs {
		sb.WriteString(fmt.Sprintf("%d. *%s* (%d%% match)\n", i+1, escape(r.Recipe.Name), int(r.Confidence*100+0.5)))
		if len(r.MatchReasons) > 0 {
			sb.WriteString(fmt.Sprintf("   _%s_\n", escape(r.MatchReasons[0])))
		}
		if r.SourceURL != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", r.SourceURL))
		}
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth, feedback []users.Feedback) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	if len(feedback) > 0 {
		sb.WriteString("\n💬 *Latest Feedback*\n")
		for _, f := range feedback {
			line := fmt.Sprintf("• %s %s", strings.Repeat("⭐", f.Rating), escape(f.UserID))
			if f.Message != "" {
				line += ": " + escape(f.Message)
			}
			sb.WriteString(line + "\n")
		}
	}
	return sb.String()
}
