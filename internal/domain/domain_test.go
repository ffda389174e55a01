package domain

import (
	"errors"
	"testing"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in   string
		want ServiceID
	}{
		{"My Service!", "my_service"},
		{"API Gateway", "api_gateway"},
		{"db-primary", "dbprimary"},
		{"Already_ok_42", "already_ok_42"},
		{"  spaced  ", "__spaced__"},
	}
	for _, c := range cases {
		got, err := NormalizeID(c.in)
		if err != nil {
			t.Fatalf("NormalizeID(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("NormalizeID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeID_EmptyResult(t *testing.T) {
	for _, in := range []string{"", "!!!", "---", "ßßß"} {
		if _, err := NormalizeID(in); !errors.Is(err, ErrEmptyServiceID) {
			t.Fatalf("NormalizeID(%q): want ErrEmptyServiceID, got %v", in, err)
		}
	}
}

func TestParseTarget(t *testing.T) {
	kind, addr := ParseTarget("https://example.com/health")
	if kind != KindHTTP || addr != "https://example.com/health" {
		t.Fatalf("unexpected http parse: %v %q", kind, addr)
	}

	kind, addr = ParseTarget("mc://play.example.com:25570")
	if kind != KindMinecraft || addr != "play.example.com:25570" {
		t.Fatalf("unexpected mc parse: %v %q", kind, addr)
	}

	// port defaulting
	kind, addr = ParseTarget("mc://play.example.com")
	if kind != KindMinecraft || addr != "play.example.com:25565" {
		t.Fatalf("want default port filled in, got %v %q", kind, addr)
	}
}

func TestIncidentOpen(t *testing.T) {
	i := Incident{ID: 1}
	if !i.Open() {
		t.Fatalf("incident with nil end time should be open")
	}
}
