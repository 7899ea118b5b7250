// Copyright 2024 The brane Authors
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

// Package types holds the transaction model: the typed transaction union,
// the immutable Transaction wrapper and the receipt/log/header records read
// back from a node.
package types

import (
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto"
	"github.com/noise-xyz/brane-sub007/rlp"
)

// Transaction types.
const (
	LegacyTxType     = 0x00
	DynamicFeeTxType = 0x02
	BlobTxType       = 0x03
)

var (
	ErrInvalidSig     = errors.New("invalid transaction v, r, s values")
	ErrInvalidTxType  = errors.New("transaction type not valid in this context")
	ErrShortSignature = errors.New("signature must be 65 bytes long")
)

// TxData is the underlying data of a transaction.
//
// This is implemented by LegacyTx, DynamicFeeTx and BlobTx.
type TxData interface {
	txType() byte
	copy() TxData // creates a deep copy and initializes all fields

	chainID() *big.Int
	data() []byte
	gas() uint64
	gasPrice() *big.Int
	gasTipCap() *big.Int
	gasFeeCap() *big.Int
	value() *big.Int
	nonce() uint64
	to() *common.Address

	rawSignatureValues() (v, r, s *big.Int)
	setSignatureValues(chainID, v, r, s *big.Int)

	// sigHash returns the hash the sender signs for the given chain id.
	sigHash(chainID *big.Int) common.Hash

	// encode writes the canonical signed payload list. The blob sidecar is
	// never part of this payload.
	encode(w rlp.EncoderBuffer)
}

// Transaction is a single Ethereum transaction. It is immutable: signing
// produces a new Transaction value and the hash is cached after first use.
type Transaction struct {
	inner TxData
	hash  atomic.Value
}

// NewTx creates a new transaction.
func NewTx(inner TxData) *Transaction {
	tx := new(Transaction)
	tx.inner = inner.copy()
	return tx
}

// Type returns the transaction type.
func (tx *Transaction) Type() byte { return tx.inner.txType() }

// ChainID returns the chain id of the transaction. For legacy transactions
// it is derived from the signature's V value and is zero when unprotected.
func (tx *Transaction) ChainID() *big.Int { return tx.inner.chainID() }

// Data returns the input data of the transaction.
func (tx *Transaction) Data() []byte { return tx.inner.data() }

// Gas returns the gas limit of the transaction.
func (tx *Transaction) Gas() uint64 { return tx.inner.gas() }

// GasPrice returns the gas price of the transaction. For dynamic-fee
// transactions it returns the fee cap.
func (tx *Transaction) GasPrice() *big.Int { return new(big.Int).Set(tx.inner.gasPrice()) }

// GasTipCap returns the gasTipCap per gas of the transaction.
func (tx *Transaction) GasTipCap() *big.Int { return new(big.Int).Set(tx.inner.gasTipCap()) }

// GasFeeCap returns the fee cap per gas of the transaction.
func (tx *Transaction) GasFeeCap() *big.Int { return new(big.Int).Set(tx.inner.gasFeeCap()) }

// Value returns the ether amount of the transaction.
func (tx *Transaction) Value() *big.Int { return new(big.Int).Set(tx.inner.value()) }

// Nonce returns the sender account nonce of the transaction.
func (tx *Transaction) Nonce() uint64 { return tx.inner.nonce() }

// To returns the recipient address of the transaction.
// For contract-creation transactions, To returns nil.
func (tx *Transaction) To() *common.Address { return copyAddressPtr(tx.inner.to()) }

// AccessList returns the access list of the transaction, nil for legacy
// transactions.
func (tx *Transaction) AccessList() AccessList {
	switch inner := tx.inner.(type) {
	case *DynamicFeeTx:
		return inner.AccessList
	case *BlobTx:
		return inner.AccessList
	default:
		return nil
	}
}

// BlobGasFeeCap returns the blob gas fee cap per blob gas of the transaction
// for blob transactions, nil otherwise.
func (tx *Transaction) BlobGasFeeCap() *big.Int {
	if blobtx, ok := tx.inner.(*BlobTx); ok {
		return blobtx.BlobFeeCap.ToBig()
	}
	return nil
}

// BlobHashes returns the hashes of the blob commitments for blob
// transactions, nil otherwise.
func (tx *Transaction) BlobHashes() []common.Hash {
	if blobtx, ok := tx.inner.(*BlobTx); ok {
		return blobtx.BlobHashes
	}
	return nil
}

// BlobTxSidecar returns the sidecar of the blob transaction, nil otherwise.
func (tx *Transaction) BlobTxSidecar() *BlobTxSidecar {
	if blobtx, ok := tx.inner.(*BlobTx); ok {
		return blobtx.Sidecar
	}
	return nil
}

// RawSignatureValues returns the V, R, S signature values of the
// transaction. The return values should not be modified by the caller.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.inner.rawSignatureValues()
}

// Protected reports whether the transaction is replay-protected.
func (tx *Transaction) Protected() bool {
	if legacy, ok := tx.inner.(*LegacyTx); ok {
		v, _, _ := legacy.rawSignatureValues()
		if v == nil || v.BitLen() > 8 {
			return v != nil && isProtectedV(v)
		}
		return isProtectedV(v)
	}
	return true
}

func isProtectedV(v *big.Int) bool {
	if v.BitLen() <= 8 {
		u := v.Uint64()
		return u != 27 && u != 28 && u != 1 && u != 0
	}
	// anything not 27 or 28 is protected
	return true
}

// SigningHash returns the hash the sender must sign to authorize this
// transaction on the given chain.
func (tx *Transaction) SigningHash(chainID *big.Int) common.Hash {
	return tx.inner.sigHash(chainID)
}

// WithSignature returns a new transaction carrying the given 65-byte
// [R || S || V] signature, with V holding the recovery id (0 or 1).
//
// Legacy transactions store V in the EIP-155 protected form
// 35 + 2*chainID + recid when a chain id is supplied, and in the homestead
// form 27 + recid otherwise. Typed transactions store the recovery id
// directly.
func (tx *Transaction) WithSignature(chainID *big.Int, sig []byte) (*Transaction, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, ErrShortSignature
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if sig[64] > 1 {
		return nil, ErrInvalidSig
	}

	var v *big.Int
	if tx.Type() == LegacyTxType {
		if chainID == nil || chainID.Sign() == 0 {
			v = new(big.Int).SetUint64(uint64(sig[64]) + 27)
		} else {
			v = new(big.Int).Mul(chainID, common.Big2)
			v.Add(v, new(big.Int).SetUint64(uint64(sig[64])+35))
		}
	} else {
		v = new(big.Int).SetUint64(uint64(sig[64]))
	}

	cpy := tx.inner.copy()
	cpy.setSignatureValues(chainID, v, r, s)
	return &Transaction{inner: cpy}, nil
}

// Hash returns the transaction hash. For typed transactions the hash covers
// the type byte and the canonical payload; the blob sidecar is excluded.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}

	var h common.Hash
	if tx.Type() == LegacyTxType {
		h = rlpHash(tx.inner.encode)
	} else {
		h = prefixedRlpHash(tx.Type(), tx.inner.encode)
	}
	tx.hash.Store(h)
	return h
}

// MarshalBinary returns the canonical consensus encoding of the
// transaction. Typed transactions are prefixed with their type byte. A blob
// transaction with a sidecar attached is encoded in its network form
// type || rlp([payload, blobs, commitments, proofs]).
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	if tx.Type() == LegacyTxType {
		w := rlp.NewEncoderBuffer(nil)
		tx.inner.encode(w)
		return w.ToBytes(), nil
	}
	if blobtx, ok := tx.inner.(*BlobTx); ok && blobtx.Sidecar != nil {
		return blobtx.encodeNetwork()
	}
	w := rlp.NewEncoderBuffer(nil)
	tx.inner.encode(w)
	return append([]byte{tx.Type()}, w.ToBytes()...), nil
}

// rlpHash hashes the encoder output of w.
func rlpHash(encode func(rlp.EncoderBuffer)) common.Hash {
	w := rlp.NewEncoderBuffer(nil)
	encode(w)
	return crypto.Keccak256Hash(w.ToBytes())
}

// prefixedRlpHash hashes prefix || encoded payload. Used for typed
// transaction signing and identity hashes.
func prefixedRlpHash(prefix byte, encode func(rlp.EncoderBuffer)) common.Hash {
	w := rlp.NewEncoderBuffer(nil)
	encode(w)
	return crypto.Keccak256Hash(append([]byte{prefix}, w.ToBytes()...))
}

// writeTo encodes a recipient address, with nil marking contract creation.
func writeTo(w rlp.EncoderBuffer, to *common.Address) {
	if to == nil {
		w.WriteBytes(nil)
	} else {
		w.WriteBytes(to[:])
	}
}

func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

func mustNotNil(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}
