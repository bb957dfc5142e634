package wireproto

import "testing"

func TestParseRequest(t *testing.T) {
	cases := []struct {
		raw     string
		command string
		args    []string
	}{
		{"ping", "ping", []string{}},
		{"ping,abc123", "ping", []string{"abc123"}},
		{"create,dXNlcg==,cGFzcw==,1920,1080,gb", "create", []string{"dXNlcg==", "cGFzcw==", "1920", "1080", "gb"}},
		{"list", "list", []string{}},
	}
	for _, c := range cases {
		got := ParseRequest(c.raw)
		if got.Command != c.command {
			t.Errorf("ParseRequest(%q).Command = %q, want %q", c.raw, got.Command, c.command)
		}
		if len(got.Args) != len(c.args) {
			t.Fatalf("ParseRequest(%q).Args = %v, want %v", c.raw, got.Args, c.args)
		}
		for i := range c.args {
			if got.Args[i] != c.args[i] {
				t.Errorf("ParseRequest(%q).Args[%d] = %q, want %q", c.raw, i, got.Args[i], c.args[i])
			}
		}
	}
}

func TestFormatReply(t *testing.T) {
	if got := FormatReply(Success, "secret-123"); got != "0,secret-123" {
		t.Errorf("FormatReply(Success, ...) = %q, want %q", got, "0,secret-123")
	}
	if got := FormatReply(AuthenticationError, "bad password"); got != "3,bad password" {
		t.Errorf("FormatReply(AuthenticationError, ...) = %q, want %q", got, "3,bad password")
	}
	if got := FormatReply(InvalidRequestParameters); got != "1" {
		t.Errorf("FormatReply(InvalidRequestParameters) = %q, want %q", got, "1")
	}
}

func TestJoin(t *testing.T) {
	if got := Join("pang", "deadbeef", "timeout"); got != "pang,deadbeef,timeout" {
		t.Errorf("Join(...) = %q", got)
	}
}
