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

package types

import (
	"math/big"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/rlp"
)

// DynamicFeeTx represents an EIP-1559 transaction.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int // a.k.a. maxPriorityFeePerGas
	GasFeeCap  *big.Int // a.k.a. maxFeePerGas
	Gas        uint64
	To         *common.Address // nil means contract creation
	Value      *big.Int
	Data       []byte
	AccessList AccessList

	// Signature values
	V, R, S *big.Int
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *DynamicFeeTx) copy() TxData {
	cpy := &DynamicFeeTx{
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are copied below.
		AccessList: make(AccessList, len(tx.AccessList)),
		Value:      new(big.Int),
		ChainID:    new(big.Int),
		GasTipCap:  new(big.Int),
		GasFeeCap:  new(big.Int),
		V:          new(big.Int),
		R:          new(big.Int),
		S:          new(big.Int),
	}
	copy(cpy.AccessList, tx.AccessList)
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.ChainID != nil {
		cpy.ChainID.Set(tx.ChainID)
	}
	if tx.GasTipCap != nil {
		cpy.GasTipCap.Set(tx.GasTipCap)
	}
	if tx.GasFeeCap != nil {
		cpy.GasFeeCap.Set(tx.GasFeeCap)
	}
	if tx.V != nil {
		cpy.V.Set(tx.V)
	}
	if tx.R != nil {
		cpy.R.Set(tx.R)
	}
	if tx.S != nil {
		cpy.S.Set(tx.S)
	}
	return cpy
}

// accessors for innerTx.
func (tx *DynamicFeeTx) txType() byte        { return DynamicFeeTxType }
func (tx *DynamicFeeTx) chainID() *big.Int   { return mustNotNil(tx.ChainID) }
func (tx *DynamicFeeTx) data() []byte        { return tx.Data }
func (tx *DynamicFeeTx) gas() uint64         { return tx.Gas }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int { return mustNotNil(tx.GasFeeCap) }
func (tx *DynamicFeeTx) gasTipCap() *big.Int { return mustNotNil(tx.GasTipCap) }
func (tx *DynamicFeeTx) gasPrice() *big.Int  { return mustNotNil(tx.GasFeeCap) }
func (tx *DynamicFeeTx) value() *big.Int     { return mustNotNil(tx.Value) }
func (tx *DynamicFeeTx) nonce() uint64       { return tx.Nonce }
func (tx *DynamicFeeTx) to() *common.Address { return tx.To }

func (tx *DynamicFeeTx) rawSignatureValues() (v, r, s *big.Int) {
	return tx.V, tx.R, tx.S
}

func (tx *DynamicFeeTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.ChainID, tx.V, tx.R, tx.S = chainID, v, r, s
}

// sigHash covers the payload fields with the signature slots omitted,
// prefixed by the transaction type. The supplied chain id wins over the
// field so an unsigned payload hashes consistently.
func (tx *DynamicFeeTx) sigHash(chainID *big.Int) common.Hash {
	return prefixedRlpHash(DynamicFeeTxType, func(w rlp.EncoderBuffer) {
		l := w.List()
		w.WriteBigInt(chainID)
		w.WriteUint64(tx.Nonce)
		w.WriteBigInt(tx.GasTipCap)
		w.WriteBigInt(tx.GasFeeCap)
		w.WriteUint64(tx.Gas)
		writeTo(w, tx.To)
		w.WriteBigInt(tx.Value)
		w.WriteBytes(tx.Data)
		tx.AccessList.encode(w)
		w.ListEnd(l)
	})
}

// encode writes the canonical signed payload list (without the type byte).
func (tx *DynamicFeeTx) encode(w rlp.EncoderBuffer) {
	l := w.List()
	w.WriteBigInt(tx.ChainID)
	w.WriteUint64(tx.Nonce)
	w.WriteBigInt(tx.GasTipCap)
	w.WriteBigInt(tx.GasFeeCap)
	w.WriteUint64(tx.Gas)
	writeTo(w, tx.To)
	w.WriteBigInt(tx.Value)
	w.WriteBytes(tx.Data)
	tx.AccessList.encode(w)
	w.WriteBigInt(tx.V)
	w.WriteBigInt(tx.R)
	w.WriteBigInt(tx.S)
	w.ListEnd(l)
}
