package llm_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/service/llm"
)

func TestFirstJSONObject(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`, found: true},
		{name: "prose around", input: "Sure! Here it is:\n{\"a\":1}\nHope it helps {x}", want: `{"a":1}`, found: true},
		{name: "code fence", input: "```json\n{\"a\":{\"b\":2}}\n```", want: `{"a":{"b":2}}`, found: true},
		{name: "braces in strings", input: `{"a":"}{","b":"\"}"}`, want: `{"a":"}{","b":"\"}"}`, found: true},
		{name: "no object", input: "no structured data", found: false},
		{name: "unbalanced", input: `{"a":{"b":1}`, found: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := llm.FirstJSONObject(tc.input)
			gt.Value(t, ok).Equal(tc.found)
			gt.Value(t, got).Equal(tc.want)
		})
	}
}
