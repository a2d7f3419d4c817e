package scale

import (
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

var ss58Preimage = []byte("SS58PRE")

// SS58Encode renders a 32-byte account id in SS58 form for the given
// network prefix. Only single-byte prefixes (< 64) are needed here.
func SS58Encode(accountID []byte, prefix uint8) (string, error) {
	if len(accountID) != 32 {
		return "", errors.Errorf("ss58: account id must be 32 bytes, got %d", len(accountID))
	}
	payload := append([]byte{prefix}, accountID...)
	checksum := ss58Checksum(payload)
	return base58.Encode(append(payload, checksum[:2]...)), nil
}

// SS58Decode returns the raw 32-byte account id, verifying the checksum.
// The network prefix is ignored on purpose: co-signer lists mix addresses
// rendered for different chains.
func SS58Decode(address string) ([]byte, error) {
	raw := base58.Decode(address)
	if len(raw) != 35 {
		return nil, errors.Errorf("ss58: unexpected payload length %d for %q", len(raw), address)
	}
	payload, checksum := raw[:33], raw[33:]
	expected := ss58Checksum(payload)
	if checksum[0] != expected[0] || checksum[1] != expected[1] {
		return nil, errors.Errorf("ss58: checksum mismatch for %q", address)
	}
	return payload[1:], nil
}

func ss58Checksum(payload []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte{}, ss58Preimage...), payload...))
}
