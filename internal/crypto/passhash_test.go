package crypto

import (
	"bytes"
	"testing"
)

func TestNewSalt_FreshPerUser(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		s, err := NewSalt()
		if err != nil {
			t.Fatalf("NewSalt: %v", err)
		}
		if len(s) != SaltLen {
			t.Fatalf("salt len=%d, want=%d", len(s), SaltLen)
		}
		if bytes.Equal(s, make([]byte, SaltLen)) {
			t.Fatalf("salt %d is all zeros", i)
		}
		if seen[string(s)] {
			t.Fatalf("salt %d repeated", i)
		}
		seen[string(s)] = true
	}

	if b, err := RandBytes(0); err != nil || len(b) != 0 {
		t.Fatalf("RandBytes(0) = %v, %v", b, err)
	}
}

func TestHashPassword_SameLoginPasswordDiffersAcrossSalts(t *testing.T) {
	t.Parallel()

	pw := []byte("pw123")
	s1, _ := NewSalt()
	s2, _ := NewSalt()

	h1 := HashPassword(pw, s1)
	if len(h1) != int(argonKeyLen) {
		t.Fatalf("hash len=%d, want=%d", len(h1), argonKeyLen)
	}
	if !bytes.Equal(h1, HashPassword(pw, s1)) {
		t.Fatalf("rehash with the stored salt must reproduce the stored hash")
	}
	if bytes.Equal(h1, HashPassword(pw, s2)) {
		t.Fatalf("two users with the same password share a hash")
	}
}

func TestVerifyPassword_Cases(t *testing.T) {
	t.Parallel()

	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	stored := HashPassword([]byte("pw123"), salt)
	other, _ := NewSalt()

	cases := []struct {
		name string
		pw   []byte
		salt []byte
		hash []byte
		want bool
	}{
		{"match", []byte("pw123"), salt, stored, true},
		{"wrong password", []byte("pw124"), salt, stored, false},
		{"case matters", []byte("PW123"), salt, stored, false},
		{"empty password", nil, salt, stored, false},
		{"other user's salt", []byte("pw123"), other, stored, false},
		{"truncated hash", []byte("pw123"), salt, stored[:len(stored)-1], false},
		{"no stored hash", []byte("pw123"), salt, nil, false},
	}
	for _, tc := range cases {
		if got := VerifyPassword(tc.pw, tc.salt, tc.hash); got != tc.want {
			t.Fatalf("%s: VerifyPassword=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBurnPassword_NeverAuthenticates(t *testing.T) {
	t.Parallel()

	pw := []byte("pw123")
	// a hash made with the dummy salt still must not let an unknown login through
	if !VerifyPassword(pw, dummySalt, HashPassword(pw, dummySalt)) {
		t.Fatalf("sanity: dummy-salt hash should verify")
	}
	for _, p := range [][]byte{pw, nil, []byte("anything")} {
		if BurnPassword(p) {
			t.Fatalf("BurnPassword(%q) succeeded", p)
		}
	}
}
