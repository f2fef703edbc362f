package automation

import "github.com/entrhq/llmux/pkg/platform"

// Step locates an element with a CSS selector. Deep steps also search open
// shadow roots.
type Step struct {
	Selector string `json:"selector"`
	Deep     bool   `json:"deep,omitempty"`
}

// Fallback describes the last-chance search for a submit button.
//
//   - "icon": the first enabled button containing an svg under Scope
//     (the last one when Last is set).
//   - "label": the first button whose aria-label or text contains Text.
type Fallback struct {
	Kind  string `json:"kind"`
	Scope string `json:"scope,omitempty"`
	Last  bool   `json:"last,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Plan is the ordered set of heuristics used to fill and submit one
// service's composer.
type Plan struct {
	Input    []Step    `json:"input"`
	Submit   []Step    `json:"submit"`
	Fallback *Fallback `json:"fallback,omitempty"`
}

func css(selectors ...string) []Step {
	steps := make([]Step, len(selectors))
	for i, s := range selectors {
		steps[i] = Step{Selector: s}
	}
	return steps
}

func deep(selectors ...string) []Step {
	steps := css(selectors...)
	for i := range steps {
		steps[i].Deep = true
	}
	return steps
}

func join(groups ...[]Step) []Step {
	var out []Step
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// DefaultPlans returns the heuristics for the built-in platforms.
func DefaultPlans() map[platform.ID]Plan {
	return map[platform.ID]Plan{
		platform.ChatGPT: {
			Input: css(
				`#prompt-textarea`,
				`div[contenteditable="true"][data-placeholder]`,
				`div[contenteditable="true"]`,
				`textarea`,
			),
			Submit: css(
				`[data-testid="send-button"]`,
				`button[aria-label="Send prompt"]`,
				`button[aria-label*="Send"]`,
			),
			Fallback: &Fallback{Kind: "icon", Scope: "form"},
		},
		platform.Claude: {
			Input: css(
				`div.ProseMirror[contenteditable="true"]`,
				`[contenteditable="true"].ProseMirror`,
				`fieldset [contenteditable="true"]`,
				`[contenteditable="true"]`,
			),
			Submit: css(
				`button[aria-label="Send Message"]`,
				`button[aria-label*="Send"]`,
				`[data-testid="send-button"]`,
			),
			Fallback: &Fallback{Kind: "icon", Scope: "fieldset", Last: true},
		},
		platform.Gemini: {
			Input: join(
				css(`.ql-editor[contenteditable="true"]`),
				deep(
					`.ql-editor[contenteditable="true"]`,
					`[contenteditable="true"]`,
				),
				css(`textarea`),
			),
			Submit: join(
				css(
					`button[aria-label="Send message"]`,
					`button[aria-label*="Send"]`,
				),
				deep(
					`button[aria-label*="Send"]`,
					`.send-button`,
				),
			),
			Fallback: &Fallback{Kind: "label", Text: "send"},
		},
	}
}
