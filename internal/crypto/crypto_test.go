package crypto_test

import (
	"errors"
	"testing"

	"sealwire/internal/crypto"
)

func TestDHSymmetry(t *testing.T) {
	a, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ab, err := crypto.DH(a.Priv, b.Pub)
	if err != nil {
		t.Fatalf("DH(a, B): %v", err)
	}
	ba, err := crypto.DH(b.Priv, a.Pub)
	if err != nil {
		t.Fatalf("DH(b, A): %v", err)
	}
	if ab != ba {
		t.Fatal("DH outputs differ")
	}
}

func TestExportImportPublic(t *testing.T) {
	kp, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	encoded := crypto.ExportPublic(kp.Pub)
	got, err := crypto.ImportPublic(encoded)
	if err != nil {
		t.Fatalf("ImportPublic: %v", err)
	}
	if got != kp.Pub {
		t.Fatal("round-tripped public key differs")
	}
}

func TestImportPublic_Malformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not base64!!!",
		"c2hvcnQ=", // valid base64, wrong length
	} {
		if _, err := crypto.ImportPublic(encoded); !errors.Is(err, crypto.ErrDecode) {
			t.Fatalf("ImportPublic(%q): want ErrDecode, got %v", encoded, err)
		}
	}
}

func TestImportPrivate_WrongLength(t *testing.T) {
	if _, err := crypto.ImportPrivate(make([]byte, 31)); !errors.Is(err, crypto.ErrDecode) {
		t.Fatalf("want ErrDecode, got %v", err)
	}
	if _, err := crypto.ImportPrivate(make([]byte, 32)); err != nil {
		t.Fatalf("valid length rejected: %v", err)
	}
}

func TestSignVerify(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		t.Fatalf("GenerateEd25519: %v", err)
	}
	msg := []byte("bundle payload")
	sig := crypto.SignEd25519(priv, msg)
	if !crypto.VerifyEd25519(pub, msg, sig) {
		t.Fatal("signature did not verify")
	}
	if crypto.VerifyEd25519(pub, []byte("other payload"), sig) {
		t.Fatal("signature verified over wrong payload")
	}
}

func TestFingerprint(t *testing.T) {
	kp, err := crypto.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	fp := crypto.Fingerprint(kp.Pub.Slice())
	if len(fp) != 20 {
		t.Fatalf("fingerprint length %d, want 20", len(fp))
	}
}
