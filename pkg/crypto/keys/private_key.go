package keys

import (
	"crypto/ecdsa"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKey represents a secp256k1 account key and provides a high level
// API around ecdsa.PrivateKey.
type PrivateKey struct {
	ecdsa.PrivateKey
}

// NewPrivateKey creates a new random private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{*k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex
// string, an optional 0x prefix is allowed.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(trimHexPrefix(str))
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given 32-byte slice.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", 32, len(b),
		)
	}
	k, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{*k}, nil
}

// NewPrivateKeyFromSeed derives the i-th private key from the seed phrase.
// The same seed and index always produce the same key.
func NewPrivateKeyFromSeed(seed string, i uint32) (*PrivateKey, error) {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], i)
	d := crypto.Keccak256([]byte(seed), idx[:])
	for {
		k, err := NewPrivateKeyFromBytes(d)
		if err == nil {
			return k, nil
		}
		// Out of curve order, rehash.
		d = crypto.Keccak256(d)
	}
}

// PublicKey returns the public part of the key.
func (p *PrivateKey) PublicKey() *ecdsa.PublicKey {
	return &p.PrivateKey.PublicKey
}

// Address returns the Ethereum address of the key.
func (p *PrivateKey) Address() common.Address {
	return crypto.PubkeyToAddress(p.PrivateKey.PublicKey)
}

// Bytes returns the underlying bytes of the PrivateKey.
func (p *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(&p.PrivateKey)
}

// String implements the fmt.Stringer interface, it returns the key in hex.
func (p *PrivateKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// SignHash signs the given hash returning a 65-byte [R || S || V]
// signature.
func (p *PrivateKey) SignHash(h common.Hash) ([]byte, error) {
	return crypto.Sign(h.Bytes(), &p.PrivateKey)
}

// SignTx signs the transaction with the given signer.
func (p *PrivateKey) SignTx(signer types.Signer, tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, signer, &p.PrivateKey)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
