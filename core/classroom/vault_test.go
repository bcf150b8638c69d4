package classroom

import (
	"regexp"
	"testing"

	"github.com/trezcool/darasa/core"
)

func newTestVault() *Vault {
	conf := &core.Config{}
	conf.Hashing.Iterations = 1000
	conf.Hashing.KeyLength = 64
	conf.Hashing.SaltLength = 16
	return NewVault(conf)
}

func TestVault_NewSalt(t *testing.T) {
	v := newTestVault()
	hexRegex := regexp.MustCompile(`^[0-9a-f]{32}$`)

	s1, err := v.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	s2, err := v.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	if !hexRegex.MatchString(s1) {
		t.Errorf("NewSalt() = %q, want 32 lowercase hex chars", s1)
	}
	if s1 == s2 {
		t.Errorf("NewSalt() returned the same salt twice: %q", s1)
	}
}

func TestVault_HashVerify(t *testing.T) {
	v := newTestVault()
	salt, err := v.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}

	digest := v.Hash("s3cret", salt)
	if len(digest) != 2*v.keyLen {
		t.Errorf("Hash() digest length = %d, want %d", len(digest), 2*v.keyLen)
	}
	if got := v.Hash("s3cret", salt); got != digest {
		t.Errorf("Hash() is not deterministic for a fixed salt")
	}

	otherSalt, _ := v.NewSalt()
	if v.Hash("s3cret", otherSalt) == digest {
		t.Errorf("Hash() ignored the salt")
	}

	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{name: "correct secret", secret: "s3cret", want: true},
		{name: "wrong secret", secret: "s3cret!", want: false},
		{name: "empty secret", secret: "", want: false},
		{name: "case sensitive", secret: "S3cret", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Verify(tt.secret, digest, salt); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}
