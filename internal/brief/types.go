// Package brief defines the creative brief data model and the pure
// transformations that produce it: prompt building, structured extraction
// of the model's output, and tag policy filtering.
package brief

// SourceMedia is the immutable input metadata describing the video that
// inspires a generation run. It is supplied by the media lookup collaborator
// and lives for exactly one pipeline invocation.
type SourceMedia struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	Views       uint64 `json:"views,omitempty"`
}

// URL returns the canonical watch URL for the source video, or an empty
// string when the media has no ID (e.g., manually entered metadata).
func (m SourceMedia) URL() string {
	if m.ID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + m.ID
}

// RawBrief is the structured payload exactly as the model emits it: the tag
// field is still a single hashtag string and nothing has been filtered.
// JSON tags mirror the schema the prompt instructs the model to follow.
type RawBrief struct {
	TitleEnglish    string `json:"titleEnglish"`
	TitleLocal      string `json:"titleLocal"`
	PrimaryPrompt   string `json:"primaryPrompt"`
	SecondaryPrompt string `json:"secondaryPrompt,omitempty"`
	ScriptEnglish   string `json:"scriptEnglish"`
	ScriptLocal     string `json:"scriptLocal"`
	Tags            string `json:"tags,omitempty"`
	Comment         string `json:"comment,omitempty"`
}

// CreativeBrief is the canonical structured output of the pipeline. It is
// never mutated after creation; a re-run produces a fresh brief.
type CreativeBrief struct {
	TitleEnglish    string   `json:"title_english"`
	TitleLocal      string   `json:"title_local"`
	PrimaryPrompt   string   `json:"primary_prompt"`
	SecondaryPrompt string   `json:"secondary_prompt,omitempty"`
	ScriptEnglish   string   `json:"script_english"`
	ScriptLocal     string   `json:"script_local"`
	Tags            []string `json:"tags"`
	Comment         string   `json:"comment"`
}

// Brief converts a raw model payload into the canonical CreativeBrief by
// applying the tag policy. All other fields are carried over verbatim.
func (r *RawBrief) Brief() *CreativeBrief {
	return &CreativeBrief{
		TitleEnglish:    r.TitleEnglish,
		TitleLocal:      r.TitleLocal,
		PrimaryPrompt:   r.PrimaryPrompt,
		SecondaryPrompt: r.SecondaryPrompt,
		ScriptEnglish:   r.ScriptEnglish,
		ScriptLocal:     r.ScriptLocal,
		Tags:            ApplyTagPolicy(r.Tags),
		Comment:         r.Comment,
	}
}
