package sesman

import (
	"regexp"
	"testing"
)

var hexCookiePattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestCreateCookie(t *testing.T) {
	cookie, err := createCookie()
	if err != nil {
		t.Fatalf("createCookie() error = %v", err)
	}
	if !hexCookiePattern.MatchString(cookie) {
		t.Errorf("createCookie() = %q, want 32 lowercase hex characters", cookie)
	}
}

func TestCreateCookie_Unique(t *testing.T) {
	first, err := createCookie()
	if err != nil {
		t.Fatalf("createCookie() error = %v", err)
	}
	second, err := createCookie()
	if err != nil {
		t.Fatalf("createCookie() error = %v", err)
	}
	if first == second {
		t.Errorf("createCookie() produced the same value twice: %q", first)
	}
}
