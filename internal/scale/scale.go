// Package scale implements the small slice of the SCALE codec the refill
// engine needs: compact integers, fixed-width little-endian values, and
// the storage-key hashers used to read multisig state.
package scale

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// CompactEncode encodes a non-negative integer as a SCALE compact.
func CompactEncode(v uint64) []byte {
	switch {
	case v < 1<<6:
		return []byte{byte(v << 2)}
	case v < 1<<14:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, uint16(v<<2)|0x01)
		return out
	case v < 1<<30:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, uint32(v<<2)|0x02)
		return out
	default:
		var payload []byte
		for x := v; x > 0; x >>= 8 {
			payload = append(payload, byte(x))
		}
		out := []byte{byte(len(payload)-4)<<2 | 0x03}
		return append(out, payload...)
	}
}

// CompactEncodeBig encodes a big.Int (balances are u128 on chain).
func CompactEncodeBig(v *big.Int) []byte {
	if v.IsUint64() {
		return CompactEncode(v.Uint64())
	}
	payload := reverseBytes(v.Bytes())
	out := []byte{byte(len(payload)-4)<<2 | 0x03}
	return append(out, payload...)
}

// CompactDecode reads a compact integer and returns it with the number of
// bytes consumed.
func CompactDecode(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, errors.New("scale: empty compact")
	}
	switch data[0] & 0x03 {
	case 0x00:
		return uint64(data[0] >> 2), 1, nil
	case 0x01:
		if len(data) < 2 {
			return 0, 0, errors.New("scale: truncated two-byte compact")
		}
		return uint64(binary.LittleEndian.Uint16(data[:2]) >> 2), 2, nil
	case 0x02:
		if len(data) < 4 {
			return 0, 0, errors.New("scale: truncated four-byte compact")
		}
		return uint64(binary.LittleEndian.Uint32(data[:4]) >> 2), 4, nil
	default:
		n := int(data[0]>>2) + 4
		if n > 8 {
			return 0, 0, errors.Errorf("scale: compact of %d bytes does not fit uint64", n)
		}
		if len(data) < 1+n {
			return 0, 0, errors.New("scale: truncated big compact")
		}
		var v uint64
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint64(data[1+i])
		}
		return v, 1 + n, nil
	}
}

func EncodeU16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func EncodeU32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func EncodeU128(v *big.Int) []byte {
	out := make([]byte, 16)
	copy(out, reverseBytes(v.Bytes()))
	return out
}

func DecodeU128(data []byte) (*big.Int, error) {
	if len(data) < 16 {
		return nil, errors.Errorf("scale: u128 needs 16 bytes, got %d", len(data))
	}
	return new(big.Int).SetBytes(reverseBytes(data[:16])), nil
}

// CallHash is the blake2b-256 digest of the SCALE-encoded call body. It is
// what co-signers correlate on, not the final extrinsic hash.
func CallHash(call []byte) [32]byte {
	return blake2b.Sum256(call)
}

// Twox128 is two seeded xxhash64 runs, little-endian concatenated. It keys
// pallet and storage-item prefixes.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], xxhash64(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxhash64(data, 1))
	return out
}

// Twox64Concat hashes with seeded xxhash64 and appends the raw key,
// matching the Twox64Concat storage hasher.
func Twox64Concat(data []byte) []byte {
	out := make([]byte, 8, 8+len(data))
	binary.LittleEndian.PutUint64(out, xxhash64(data, 0))
	return append(out, data...)
}

// Blake2b128Concat matches the Blake2_128Concat storage hasher.
func Blake2b128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	out := h.Sum(make([]byte, 0, 16+len(data)))
	return append(out, data...)
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
