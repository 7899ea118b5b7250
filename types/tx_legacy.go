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

// LegacyTx is the transaction data of the original Ethereum transactions.
type LegacyTx struct {
	Nonce    uint64          // nonce of sender account
	GasPrice *big.Int        // wei per gas
	Gas      uint64          // gas limit
	To       *common.Address // nil means contract creation
	Value    *big.Int        // wei amount
	Data     []byte          // contract invocation input data
	V, R, S  *big.Int        // signature values
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *LegacyTx) copy() TxData {
	cpy := &LegacyTx{
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are initialized below.
		Value:    new(big.Int),
		GasPrice: new(big.Int),
		V:        new(big.Int),
		R:        new(big.Int),
		S:        new(big.Int),
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.GasPrice != nil {
		cpy.GasPrice.Set(tx.GasPrice)
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
func (tx *LegacyTx) txType() byte           { return LegacyTxType }
func (tx *LegacyTx) data() []byte           { return tx.Data }
func (tx *LegacyTx) gas() uint64            { return tx.Gas }
func (tx *LegacyTx) gasPrice() *big.Int     { return mustNotNil(tx.GasPrice) }
func (tx *LegacyTx) gasTipCap() *big.Int    { return mustNotNil(tx.GasPrice) }
func (tx *LegacyTx) gasFeeCap() *big.Int    { return mustNotNil(tx.GasPrice) }
func (tx *LegacyTx) value() *big.Int        { return mustNotNil(tx.Value) }
func (tx *LegacyTx) nonce() uint64          { return tx.Nonce }
func (tx *LegacyTx) to() *common.Address    { return tx.To }
func (tx *LegacyTx) chainID() *big.Int      { return deriveChainID(tx.V) }

func (tx *LegacyTx) rawSignatureValues() (v, r, s *big.Int) {
	return tx.V, tx.R, tx.S
}

func (tx *LegacyTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.V, tx.R, tx.S = v, r, s
}

// sigHash returns the EIP-155 signing hash when a chain id is supplied: the
// nine field list with chainID, 0, 0 in the signature slots. Without a chain
// id the original homestead six field list is hashed.
func (tx *LegacyTx) sigHash(chainID *big.Int) common.Hash {
	return rlpHash(func(w rlp.EncoderBuffer) {
		l := w.List()
		w.WriteUint64(tx.Nonce)
		w.WriteBigInt(tx.GasPrice)
		w.WriteUint64(tx.Gas)
		writeTo(w, tx.To)
		w.WriteBigInt(tx.Value)
		w.WriteBytes(tx.Data)
		if chainID != nil && chainID.Sign() != 0 {
			w.WriteBigInt(chainID)
			w.WriteUint64(0)
			w.WriteUint64(0)
		}
		w.ListEnd(l)
	})
}

// encode writes the canonical nine field signed payload.
func (tx *LegacyTx) encode(w rlp.EncoderBuffer) {
	l := w.List()
	w.WriteUint64(tx.Nonce)
	w.WriteBigInt(tx.GasPrice)
	w.WriteUint64(tx.Gas)
	writeTo(w, tx.To)
	w.WriteBigInt(tx.Value)
	w.WriteBytes(tx.Data)
	w.WriteBigInt(tx.V)
	w.WriteBigInt(tx.R)
	w.WriteBigInt(tx.S)
	w.ListEnd(l)
}

// deriveChainID derives the chain id from the given v parameter.
func deriveChainID(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	if v.BitLen() <= 64 {
		u := v.Uint64()
		if u == 27 || u == 28 || u == 0 {
			return new(big.Int)
		}
		return new(big.Int).SetUint64((u - 35) / 2)
	}
	w := new(big.Int).Sub(v, big.NewInt(35))
	return w.Div(w, common.Big2)
}
