package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the embedded
	// default or an error when none exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptMetaSystem is the fixed system instruction for metadata suggestions.
	// It has no placeholders.
	PromptMetaSystem = "meta_system"

	// PromptMetaUser is the per-page prompt. It is a text/template rendered
	// with .URL, .Queries, .Impressions and .Clicks.
	PromptMetaUser = "meta_user"
)
