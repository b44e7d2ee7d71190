package auth

import "testing"

func TestResolveSession_RejectsUnknownToken(t *testing.T) {
	m := NewManager()
	if _, _, err := m.Register("dave", "correcthorse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, ok := m.ResolveSession("not-a-real-token"); ok {
		t.Fatalf("expected unknown token to be rejected")
	}
}
