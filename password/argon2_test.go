package password

import (
	"errors"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func TestHashAndCompare(t *testing.T) {
	vault, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	hash, err := vault.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash is not PHC encoded: %q", hash)
	}

	ok, err := vault.Compare("correct horse battery", hash)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to compare true")
	}

	ok, err = vault.Compare("wrong password", hash)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if ok {
		t.Fatal("expected mismatching password to compare false")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	vault, _ := NewArgon2(testConfig())

	if _, err := vault.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	vault, _ := NewArgon2(testConfig())

	if _, err := vault.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := vault.Hash(strings.Repeat("a", 64)); err != nil {
		t.Fatalf("64-byte password should hash, got %v", err)
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	vault, _ := NewArgon2(testConfig())

	first, err := vault.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := vault.Hash("same input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same input must differ by salt")
	}
}

func TestCompareRejectsEmptyPassword(t *testing.T) {
	vault, _ := NewArgon2(testConfig())
	hash, err := vault.Hash("valid secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if _, err := vault.Compare("", hash); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestCompareRejectsOverlongPassword(t *testing.T) {
	vault, _ := NewArgon2(testConfig())
	hash, err := vault.Hash("valid secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if _, err := vault.Compare(strings.Repeat("a", 65), hash); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	ok, err := vault.Compare(strings.Repeat("a", 64), hash)
	if err != nil {
		t.Fatalf("64-byte candidate should compare, got %v", err)
	}
	if ok {
		t.Fatal("expected mismatching 64-byte candidate to compare false")
	}
}

func TestCompareRejectsMalformedHashes(t *testing.T) {
	vault, _ := NewArgon2(testConfig())

	cases := map[string]string{
		"empty":           "",
		"not phc":         "plainhash",
		"wrong algorithm": "$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"bad version":     "$argon2id$v=7$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"missing params":  "$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA",
		"bad salt":        "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaGhhc2hoYXNoaGFzaA",
	}

	for name, encoded := range cases {
		if _, err := vault.Compare("whatever", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("%s: expected ErrMalformedHash, got %v", name, err)
		}
	}
}

func TestCompareHonorsEmbeddedParameters(t *testing.T) {
	weak, _ := NewArgon2(testConfig())
	hash, err := weak.Hash("portable secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	strongCfg := testConfig()
	strongCfg.Memory = 64 * 1024
	strongCfg.Time = 3
	strong, _ := NewArgon2(strongCfg)

	ok, err := strong.Compare("portable secret", hash)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !ok {
		t.Fatal("verification must use the parameters embedded in the hash")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak, _ := NewArgon2(testConfig())
	hash, err := weak.Hash("portable secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if needs, err := weak.NeedsUpgrade(hash); err != nil || needs {
		t.Fatalf("same config should not need upgrade, got needs=%v err=%v", needs, err)
	}

	strongCfg := testConfig()
	strongCfg.Time = 3
	strong, _ := NewArgon2(strongCfg)
	if needs, err := strong.NeedsUpgrade(hash); err != nil || !needs {
		t.Fatalf("stronger config should flag upgrade, got needs=%v err=%v", needs, err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := []Config{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}
	for i, cfg := range cases {
		if _, err := NewArgon2(cfg); err == nil {
			t.Errorf("case %d: expected config rejection", i)
		}
	}
}
