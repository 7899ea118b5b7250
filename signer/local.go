// Copyright 2025 The brane Authors
// This file is part of the brane library.
//
// The brane library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The brane library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the brane library. If not, see <http://www.gnu.org/licenses/>.

// Package signer provides an in-memory secp256k1 implementation of the
// root Signer interface, suitable for tooling and tests. Production
// deployments with custody requirements should implement the interface
// against their key management instead.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto"
	"github.com/noise-xyz/brane-sub007/types"
)

// Local signs with a plaintext private key held in process memory.
type Local struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// FromKey wraps an existing private key.
func FromKey(key *ecdsa.PrivateKey) (*Local, error) {
	if key == nil {
		return nil, errors.New("nil private key")
	}
	return &Local{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// FromHex parses a hex-encoded private key, with or without 0x prefix.
func FromHex(hexkey string) (*Local, error) {
	if len(hexkey) >= 2 && hexkey[0] == '0' && (hexkey[1] == 'x' || hexkey[1] == 'X') {
		hexkey = hexkey[2:]
	}
	key, err := crypto.HexToECDSA(hexkey)
	if err != nil {
		return nil, err
	}
	return FromKey(key)
}

// Generate creates a signer with a fresh random key.
func Generate() (*Local, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return FromKey(key)
}

// Address returns the address derived from the public key.
func (s *Local) Address() common.Address { return s.addr }

// SignTransaction signs the transaction's signing hash for the given chain
// and returns the 65-byte [R || S || V] signature with V as the recovery
// id.
func (s *Local) SignTransaction(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	if tx == nil {
		return nil, errors.New("nil transaction")
	}
	h := tx.SigningHash(chainID)
	return crypto.Sign(h[:], s.key)
}

// SignMessage signs msg under the EIP-191 personal message prefix, so the
// signature cannot be replayed as a transaction.
func (s *Local) SignMessage(msg []byte) ([]byte, error) {
	return crypto.Sign(crypto.TextHash(msg), s.key)
}
