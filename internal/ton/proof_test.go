package ton

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/xssnick/tonutils-go/address"
)

func testAddress(t *testing.T) *address.Address {
	t.Helper()
	hash := make([]byte, 32)
	for i := range hash {
		hash[i] = byte(i)
	}
	addr, err := address.ParseRawAddr("0:" + hex.EncodeToString(hash))
	if err != nil {
		t.Fatal(err)
	}
	return addr
}

func signedProof(t *testing.T, priv ed25519.PrivateKey, addr *address.Address, ts time.Time, domain string) Proof {
	t.Helper()
	proof := Proof{
		Timestamp: ts.Unix(),
		Domain:    ProofDomain{LengthBytes: len(domain), Value: domain},
		Payload:   "test-nonce-12345",
	}
	digest := SignedDigest(addr, proof)
	proof.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(priv, digest[:]))
	return proof
}

func TestVerifyProof_ValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	addr := testAddress(t)
	now := time.Now()
	proof := signedProof(t, priv, addr, now, "escrow.example.com")

	if err := VerifyProof(hex.EncodeToString(pub), addr, proof, []string{"escrow.example.com"}, now); err != nil {
		t.Fatalf("expected valid proof, got error: %v", err)
	}
}

func TestVerifyProof_HexSignature(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	addr := testAddress(t)
	now := time.Now()
	proof := signedProof(t, priv, addr, now, "escrow.example.com")

	raw, _ := base64.StdEncoding.DecodeString(proof.Signature)
	proof.Signature = hex.EncodeToString(raw)

	if err := VerifyProof(hex.EncodeToString(pub), addr, proof, nil, now); err != nil {
		t.Fatalf("expected hex signature to verify, got: %v", err)
	}
}

func TestVerifyProof_Rejections(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	otherPub, _, _ := ed25519.GenerateKey(nil)
	addr := testAddress(t)
	now := time.Now()

	tests := []struct {
		name    string
		pubKey  string
		proof   Proof
		allowed []string
		wantErr string
	}{
		{
			name:    "expired",
			pubKey:  hex.EncodeToString(pub),
			proof:   signedProof(t, priv, addr, now.Add(-10*time.Minute), "test"),
			wantErr: "expired",
		},
		{
			name:    "future",
			pubKey:  hex.EncodeToString(pub),
			proof:   signedProof(t, priv, addr, now.Add(10*time.Minute), "test"),
			wantErr: "future",
		},
		{
			name:    "wrong domain",
			pubKey:  hex.EncodeToString(pub),
			proof:   signedProof(t, priv, addr, now, "evil.com"),
			allowed: []string{"good.com"},
			wantErr: "domain",
		},
		{
			name:    "other key",
			pubKey:  hex.EncodeToString(otherPub),
			proof:   signedProof(t, priv, addr, now, "test"),
			wantErr: "invalid signature",
		},
		{
			name:    "bad public key",
			pubKey:  "zz",
			proof:   signedProof(t, priv, addr, now, "test"),
			wantErr: "public key",
		},
		{
			name:   "zero signature",
			pubKey: hex.EncodeToString(pub),
			proof: Proof{
				Timestamp: now.Unix(),
				Domain:    ProofDomain{LengthBytes: 4, Value: "test"},
				Payload:   "nonce",
				Signature: hex.EncodeToString(make([]byte, 64)),
			},
			wantErr: "invalid signature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyProof(tt.pubKey, addr, tt.proof, tt.allowed, now)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyProof_TamperedPayload(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(nil)
	addr := testAddress(t)
	now := time.Now()
	proof := signedProof(t, priv, addr, now, "test")
	proof.Payload = "another-nonce"

	if err := VerifyProof(hex.EncodeToString(pub), addr, proof, nil, now); err == nil {
		t.Fatal("expected error for tampered payload")
	}
}

func TestNormalizeAddress(t *testing.T) {
	raw := "0:" + strings.Repeat("ab", 32)

	got, err := NormalizeAddress(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != raw {
		t.Errorf("NormalizeAddress(raw) = %q, want %q", got, raw)
	}

	data, _ := hex.DecodeString(strings.Repeat("ab", 32))
	friendly := address.NewAddress(0, 0, data).String()
	got, err = NormalizeAddress(friendly)
	if err != nil {
		t.Fatal(err)
	}
	if got != raw {
		t.Errorf("NormalizeAddress(%s) = %q, want %q", friendly, got, raw)
	}

	for _, bad := range []string{"", "invalid", "0:short"} {
		if _, err := NormalizeAddress(bad); err == nil {
			t.Errorf("NormalizeAddress(%q) expected error", bad)
		}
	}
}

func TestParseTON_RoundTrip(t *testing.T) {
	nano, err := ParseTON("5.5")
	if err != nil {
		t.Fatal(err)
	}
	if nano != 5_500_000_000 {
		t.Errorf("ParseTON(5.5) = %d, want 5500000000", nano)
	}

	back, err := ParseTON(FormatNano(nano))
	if err != nil {
		t.Fatal(err)
	}
	if back != nano {
		t.Errorf("round trip = %d, want %d", back, nano)
	}

	if _, err := ParseTON("not-a-number"); err == nil {
		t.Error("expected error for garbage input")
	}
}
