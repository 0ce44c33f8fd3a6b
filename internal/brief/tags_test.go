package brief

import (
	"reflect"
	"testing"
)

func TestApplyTagPolicy(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "clean tags keep order and gain marker",
			input:    "#Slime #Relax",
			expected: []string{"#Slime", "#Relax", "#AI"},
		},
		{
			name:     "vendor tag dropped",
			input:    "#Slime #Veo #Relax",
			expected: []string{"#Slime", "#Relax", "#AI"},
		},
		{
			name:     "vendor match is case-insensitive",
			input:    "#SORA #sora #SoRa #Calm",
			expected: []string{"#Calm", "#AI"},
		},
		{
			name:     "marker already present is not duplicated",
			input:    "#AI #Slime",
			expected: []string{"#AI", "#Slime"},
		},
		{
			name:     "marker casing variants count as present",
			input:    "#ai #Slime",
			expected: []string{"#ai", "#Slime"},
		},
		{
			name:     "empty input yields just the marker",
			input:    "",
			expected: []string{"#AI"},
		},
		{
			name:     "free text without hashtags yields just the marker",
			input:    "no tags here, sorry",
			expected: []string{"#AI"},
		},
		{
			name:     "hashtags embedded in prose are extracted",
			input:    "try #Slime and also #Relax today",
			expected: []string{"#Slime", "#Relax", "#AI"},
		},
		{
			name:     "vendor name inside a longer tag is kept",
			input:    "#VeoStyle #Slime",
			expected: []string{"#VeoStyle", "#Slime", "#AI"},
		},
		{
			name:     "every vendor on the denylist is dropped",
			input:    "#veo #sora #gemini #imagen #runway",
			expected: []string{"#AI"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ApplyTagPolicy(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ApplyTagPolicy(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestApplyTagPolicy_Idempotent(t *testing.T) {
	inputs := []string{
		"#Slime #Veo #Relax",
		"",
		"#AI",
		"#sora #SORA",
	}

	for _, input := range inputs {
		once := ApplyTagPolicy(input)
		twice := ApplyTagPolicy(joinTags(once))
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("ApplyTagPolicy not idempotent for %q: first %v, second %v", input, once, twice)
		}
	}
}

func joinTags(tags []string) string {
	out := ""
	for i, tag := range tags {
		if i > 0 {
			out += " "
		}
		out += tag
	}
	return out
}
