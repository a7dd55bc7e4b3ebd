package ai

import "testing"

func TestExtractBetween(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		delim  string
		want   string
		wantOK bool
	}{
		{
			name:   "well formed span",
			input:  "sure thing ```RESPOND``` because ***they asked me***",
			delim:  "```",
			want:   "RESPOND",
			wantOK: true,
		},
		{
			name:   "takes the first span when several exist",
			input:  "***first*** and ***second***",
			delim:  "***",
			want:   "first",
			wantOK: true,
		},
		{
			name:   "nested spans resolve to the outermost opening pair",
			input:  "```outer ```inner``` tail```",
			delim:  "```",
			want:   "outer",
			wantOK: true,
		},
		{
			name:   "missing delimiter entirely",
			input:  "RESPOND, definitely",
			delim:  "```",
			wantOK: false,
		},
		{
			name:   "opening delimiter without a closing one",
			input:  "```RESPOND and then it trails off",
			delim:  "```",
			wantOK: false,
		},
		{
			name:   "empty span",
			input:  "``````",
			delim:  "```",
			want:   "",
			wantOK: true,
		},
		{
			name:   "whitespace-only span is trimmed to empty",
			input:  "```   \n```",
			delim:  "```",
			want:   "",
			wantOK: true,
		},
		{
			name:   "span surrounded by noise is trimmed",
			input:  "preamble ``` \tPASS\n``` postamble",
			delim:  "```",
			want:   "PASS",
			wantOK: true,
		},
		{
			name:   "different delimiter does not match",
			input:  "```RESPOND```",
			delim:  "***",
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			delim:  "```",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractBetween(tt.input, tt.delim)
			if ok != tt.wantOK {
				t.Fatalf("extractBetween ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("extractBetween = %q, want %q", got, tt.want)
			}
		})
	}
}
