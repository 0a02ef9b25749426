package ton

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/xssnick/tonutils-go/address"
)

const (
	// https://docs.ton.org/develop/dapps/ton-connect/sign#checking-ton_proof-on-server-side
	TonProofPrefix   = "ton-proof-item-v2/"
	TonConnectPrefix = "ton-connect"

	// MaxProofAge: защита от replay.
	MaxProofAge  = 5 * time.Minute
	maxClockSkew = time.Minute
)

type Proof struct {
	Timestamp int64       `json:"timestamp"`
	Domain    ProofDomain `json:"domain"`
	Payload   string      `json:"payload"`   // nonce issued by the API
	Signature string      `json:"signature"` // base64 (hex accepted)
}

type ProofDomain struct {
	LengthBytes int    `json:"lengthBytes"`
	Value       string `json:"value"`
}

// VerifyProof checks a TON Connect ton_proof:
//
//	message   = "ton-proof-item-v2/" ++ wc(4 LE) ++ hash(32) ++ len(domain)(4 LE) ++ domain ++ ts(8 LE) ++ payload
//	signed    = sha256(0xffff ++ "ton-connect" ++ sha256(message))
//	ed25519.Verify(pubKey, signed, signature)
func VerifyProof(pubKeyHex string, addr *address.Address, proof Proof, allowedDomains []string, now time.Time) error {
	proofTime := time.Unix(proof.Timestamp, 0)
	if now.Sub(proofTime) > MaxProofAge {
		return fmt.Errorf("proof expired: %s old", now.Sub(proofTime).Round(time.Second))
	}
	if proofTime.After(now.Add(maxClockSkew)) {
		return fmt.Errorf("proof timestamp is in the future")
	}

	if !isDomainAllowed(proof.Domain.Value, allowedDomains) {
		return fmt.Errorf("domain %q not in allowed list", proof.Domain.Value)
	}

	pubKey, err := DecodePublicKey(pubKeyHex)
	if err != nil {
		return err
	}

	sig, err := decodeSignature(proof.Signature)
	if err != nil {
		return err
	}

	digest := SignedDigest(addr, proof)
	if !ed25519.Verify(pubKey, digest[:], sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// SignedDigest returns the hash a wallet signs for the given proof.
func SignedDigest(addr *address.Address, proof Proof) [32]byte {
	msg := make([]byte, 0, len(TonProofPrefix)+4+32+4+len(proof.Domain.Value)+8+len(proof.Payload))
	msg = append(msg, TonProofPrefix...)
	msg = binary.LittleEndian.AppendUint32(msg, uint32(addr.Workchain()))
	msg = append(msg, addr.Data()...)
	msg = binary.LittleEndian.AppendUint32(msg, uint32(proof.Domain.LengthBytes))
	msg = append(msg, proof.Domain.Value...)
	msg = binary.LittleEndian.AppendUint64(msg, uint64(proof.Timestamp))
	msg = append(msg, proof.Payload...)

	msgHash := sha256.Sum256(msg)

	full := make([]byte, 0, 2+len(TonConnectPrefix)+len(msgHash))
	full = append(full, 0xff, 0xff)
	full = append(full, TonConnectPrefix...)
	full = append(full, msgHash[:]...)

	return sha256.Sum256(full)
}

func decodeSignature(s string) ([]byte, error) {
	sig, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(sig) != ed25519.SignatureSize {
		if h, hexErr := hex.DecodeString(s); hexErr == nil {
			sig, err = h, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("invalid signature size: %d", len(sig))
	}
	return sig, nil
}

func isDomainAllowed(domain string, allowed []string) bool {
	if len(allowed) == 0 {
		return true // dev mode
	}
	for _, d := range allowed {
		if d == domain {
			return true
		}
	}
	return false
}
