package storage

import "fmt"

// SavedRecipesKey holds the set of external recipe keys a user has saved.
func SavedRecipesKey(userID string) string {
	return "saved_recipes:" + userID
}

// LastSuggestionsKey holds the last AI suggestion batch shown to a user.
func LastSuggestionsKey(userID string) string {
	return "suggestions:last:" + userID
}

// PlanDraftKey holds an unsaved weekly plan.
func PlanDraftKey(userID, weekStart string) string {
	return fmt.Sprintf("plan_draft:%s:%s", userID, weekStart)
}

// EmbeddingCacheKey holds a cached embedding for a text digest.
func EmbeddingCacheKey(digest string) string {
	return "embedding:" + digest
}
