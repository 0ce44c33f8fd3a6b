package brief

// Variant selects how many video-generation engines the brief targets.
// The dual variant adds a secondary prompt for a second engine; everything
// else about the output contract is identical.
type Variant string

// Supported prompt variants
const (
	VariantSingle Variant = "single"
	VariantDual   Variant = "dual"
)

// Field describes one key of the output contract. The prompt builder renders
// this list into the instruction block and the extractor validates responses
// against a JSON Schema generated from the same list, so the two can never
// drift apart.
type Field struct {
	Name        string // JSON key the model must emit
	Description string // instruction shown to the model
	Required    bool   // missing required keys reject the response
	DualOnly    bool   // only part of the contract in the dual-engine variant
}

// Fields returns the output contract for a variant, in the order the prompt
// presents them.
func Fields(variant Variant) []Field {
	fields := []Field{
		{
			Name:        "titleEnglish",
			Description: "catchy English title for the short",
			Required:    true,
		},
		{
			Name:        "titleLocal",
			Description: "eye-catching Traditional Chinese title, emoji welcome",
			Required:    true,
		},
		{
			Name:        "primaryPrompt",
			Description: "English text-to-video prompt: photorealistic, 4k, cinematic lighting, slow motion, detailed texture, describing one deeply satisfying physical phenomenon",
			Required:    true,
		},
		{
			Name:        "secondaryPrompt",
			Description: "alternative English text-to-video prompt for a second engine, same scene from a different angle",
			DualOnly:    true,
		},
		{
			Name:        "scriptEnglish",
			Description: "9-second shot-by-shot script in English",
			Required:    true,
		},
		{
			Name:        "scriptLocal",
			Description: "the same 9-second script in Traditional Chinese",
			Required:    true,
		},
		{
			Name:        "tags",
			Description: "hashtags as one string, mixed English and Chinese, e.g. \"#Tag1 #Tag2\"",
		},
		{
			Name:        "comment",
			Description: "pinned comment text in Traditional Chinese",
		},
	}

	if variant == VariantDual {
		return fields
	}
	out := fields[:0:0]
	for _, f := range fields {
		if !f.DualOnly {
			out = append(out, f)
		}
	}
	return out
}

// schemaDocument builds the JSON Schema used to validate extracted payloads.
// Validation always uses the dual-variant superset so a single-engine run
// that happens to include a secondary prompt is not rejected; required keys
// are the same in both variants.
func schemaDocument() map[string]any {
	properties := make(map[string]any)
	var required []string
	for _, f := range Fields(VariantDual) {
		properties[f.Name] = map[string]any{"type": "string"}
		if f.Required {
			required = append(required, f.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
