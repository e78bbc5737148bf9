package domain

// DefaultMetaSystemPrompt is the system instruction sent with every
// metadata request.
const DefaultMetaSystemPrompt = "You are an SEO expert for medical content."

// DefaultMetaUserPrompt is the per-page request. It is a text/template
// rendered with a MetaPromptData.
const DefaultMetaUserPrompt = `Given this webpage data:

URL: {{.URL}}
Recent queries: {{.Queries}}
Impressions: {{.Impressions}}
Clicks: {{.Clicks}}

Suggest:
1. A new SEO title (≤60 chars)
2. A meta description (≤155 chars)
3. One schema.org tag update idea
Return JSON with keys title, description, schema.`

// MetaPromptData is the data a metadata prompt template is rendered with.
type MetaPromptData struct {
	URL string

	// Queries is the JSON array of the record's queries, e.g. ["knee pain"].
	Queries string

	Impressions int64
	Clicks      int64
}
