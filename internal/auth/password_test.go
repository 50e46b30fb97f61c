package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher() error = %v", err)
	}
	return h
}

func TestNewPasswordHasher_Cost(t *testing.T) {
	if _, err := NewPasswordHasher(0); err != nil {
		t.Errorf("cost 0 should fall back to default, got %v", err)
	}
	if _, err := NewPasswordHasher(bcrypt.MinCost - 1); err == nil {
		t.Error("cost below minimum should fail")
	}
	if _, err := NewPasswordHasher(bcrypt.MaxCost + 1); err == nil {
		t.Error("cost above maximum should fail")
	}
}

func TestPasswordHasher_HashVerify(t *testing.T) {
	h := newTestHasher(t)

	for _, pw := range []string{"longenough1", "пароль-юникод", "with spaces and symbols !@#$"} {
		digest, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) error = %v", pw, err)
		}
		if digest == pw {
			t.Fatal("digest equals plaintext")
		}
		if !h.Verify(pw, digest) {
			t.Errorf("Verify(%q, Hash(%q)) = false", pw, pw)
		}
		if h.Verify(pw+"x", digest) {
			t.Errorf("Verify accepted a different password for %q", pw)
		}
	}
}

func TestPasswordHasher_SaltedDigests(t *testing.T) {
	h := newTestHasher(t)

	a, _ := h.Hash("longenough1")
	b, _ := h.Hash("longenough1")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
	if !h.Verify("longenough1", a) || !h.Verify("longenough1", b) {
		t.Error("both digests should verify")
	}
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	h := newTestHasher(t)

	for _, digest := range []string{"", "plaintext", "$2a$04$truncated", "$2a$99$" + string(make([]byte, 53))} {
		if h.Verify("longenough1", digest) {
			t.Errorf("Verify() with digest %q = true, want false", digest)
		}
	}
}
