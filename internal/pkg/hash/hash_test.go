package hash

import (
	"strings"
	"testing"
)

func TestSHA256(t *testing.T) {
	tests := []struct {
		input []byte
		want  string
	}{
		{
			[]byte("hello"),
			"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			[]byte(""),
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			if got := SHA256(tt.input); got != tt.want {
				t.Errorf("SHA256(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSHA256Short(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{8, "2cf24dba"},
		{0, ""},
		{100, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"},
	}

	for _, tt := range tests {
		if got := SHA256Short([]byte("hello"), tt.n); got != tt.want {
			t.Errorf("SHA256Short(hello, %d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestAnonymousID(t *testing.T) {
	a := AnonymousID("cli-", "host", "linux", "amd64")
	b := AnonymousID("cli-", "host", "linux", "amd64")
	c := AnonymousID("cli-", "other", "linux", "amd64")

	if a != b {
		t.Errorf("not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Error("different inputs produced the same id")
	}
	if !strings.HasPrefix(a, "cli-") || len(a) != len("cli-")+12 {
		t.Errorf("unexpected shape: %s", a)
	}
	if strings.Contains(a, "host") {
		t.Errorf("id leaks input: %s", a)
	}
}
