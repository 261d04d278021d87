package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	v := &Verifier{Secret: []byte("test-secret")}
	token, err := v.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	subject, err := v.parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("subject = %q, want alice", subject)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	v := &Verifier{Secret: []byte("test-secret")}
	token, err := v.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other := &Verifier{Secret: []byte("not-the-secret")}
	if _, err := other.parse(token); err == nil {
		t.Fatalf("expected signature verification to fail")
	}
}

func TestParse_Expired(t *testing.T) {
	v := &Verifier{Secret: []byte("test-secret")}
	token, err := v.Issue("alice", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := v.parse(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
