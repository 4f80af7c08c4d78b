package roomname

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain", input: "demo-room", want: "demo-room"},
		{name: "trimmed", input: "  demo_room.1 \n", want: "demo_room.1"},
		{name: "unicode letters", input: "회의실-1", want: "회의실-1"},
		{name: "empty", input: "", wantErr: ErrEmpty},
		{name: "whitespace only", input: " \t ", wantErr: ErrEmpty},
		{name: "inner space", input: "demo room", wantErr: ErrBadRune},
		{name: "slash", input: "demo/room", wantErr: ErrBadRune},
		{name: "too long", input: strings.Repeat("a", MaxLength+1), wantErr: ErrTooLong},
		{name: "max length", input: strings.Repeat("a", MaxLength), want: strings.Repeat("a", MaxLength)},
		{name: "invalid utf8", input: "room\xff", wantErr: ErrNotUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Validate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	name, err := Generate(nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if parts := strings.Split(name, "-"); len(parts) != 4 {
		t.Fatalf("Generate() = %q, want four hyphenated words", name)
	}
	if _, err := Validate(name); err != nil {
		t.Errorf("generated name %q does not validate: %v", name, err)
	}
}

func TestGenerateSkipsTakenNames(t *testing.T) {
	seen := make(map[string]bool)
	calls := 0
	name, err := Generate(func(candidate string) bool {
		calls++
		seen[candidate] = true
		return calls < 3
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 3 {
		t.Errorf("taken called %d times, want 3", calls)
	}
	if !seen[name] {
		t.Errorf("returned name %q was never offered to taken", name)
	}
}

func TestGenerateGivesUp(t *testing.T) {
	_, err := Generate(func(string) bool { return true })
	if !errors.Is(err, ErrNoRandom) {
		t.Fatalf("Generate error = %v, want %v", err, ErrNoRandom)
	}
}
