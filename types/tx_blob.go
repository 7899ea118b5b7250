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
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto/kzg4844"
	"github.com/noise-xyz/brane-sub007/rlp"
)

// BlobTx represents an EIP-4844 transaction.
type BlobTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	GasTipCap  *uint256.Int // a.k.a. maxPriorityFeePerGas
	GasFeeCap  *uint256.Int // a.k.a. maxFeePerGas
	Gas        uint64
	To         common.Address
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
	BlobFeeCap *uint256.Int // a.k.a. maxFeePerBlobGas
	BlobHashes []common.Hash

	// A blob transaction can optionally contain blobs. This field must be set
	// when BlobTx is used to create a transaction for signing.
	Sidecar *BlobTxSidecar

	// Signature values
	V, R, S *uint256.Int
}

// BlobTxSidecar contains the blobs of a blob transaction. It travels with the
// transaction in network encoding but is not part of consensus encoding, so
// it never affects the transaction hash or signing hash.
type BlobTxSidecar struct {
	Blobs       []kzg4844.Blob
	Commitments []kzg4844.Commitment
	Proofs      []kzg4844.Proof
}

// BlobHashes computes the versioned blob hashes of the given blobs.
func (sc *BlobTxSidecar) BlobHashes() []common.Hash {
	hasher := sha256.New()
	h := make([]common.Hash, len(sc.Commitments))
	for i := range sc.Blobs {
		h[i] = kzg4844.CalcBlobHashV1(hasher, &sc.Commitments[i])
	}
	return h
}

// MakeSidecar builds a sidecar for the given blobs, computing the commitment
// and proof of every blob through the KZG library. The first call loads the
// trusted setup and can take a few seconds.
func MakeSidecar(blobs []kzg4844.Blob) (*BlobTxSidecar, error) {
	sc := &BlobTxSidecar{
		Blobs:       blobs,
		Commitments: make([]kzg4844.Commitment, 0, len(blobs)),
		Proofs:      make([]kzg4844.Proof, 0, len(blobs)),
	}
	for i := range blobs {
		commitment, err := kzg4844.BlobToCommitment(blobs[i])
		if err != nil {
			return nil, fmt.Errorf("blob %d: computing commitment: %w", i, err)
		}
		proof, err := kzg4844.ComputeBlobProof(blobs[i], commitment)
		if err != nil {
			return nil, fmt.Errorf("blob %d: computing proof: %w", i, err)
		}
		sc.Commitments = append(sc.Commitments, commitment)
		sc.Proofs = append(sc.Proofs, proof)
	}
	return sc, nil
}

// ValidateBlobCommitmentHashes checks whether the given hashes correspond to
// the commitments in the sidecar.
func (sc *BlobTxSidecar) ValidateBlobCommitmentHashes(hashes []common.Hash) error {
	if len(sc.Commitments) != len(hashes) {
		return fmt.Errorf("invalid number of %d blob commitments compared to %d blob hashes", len(sc.Commitments), len(hashes))
	}
	hasher := sha256.New()
	for i, vhash := range hashes {
		computed := kzg4844.CalcBlobHashV1(hasher, &sc.Commitments[i])
		if vhash != computed {
			return fmt.Errorf("blob %d: computed hash %#x mismatches transaction one %#x", i, computed, vhash)
		}
	}
	return nil
}

// encode writes the sidecar fields into the given list scope.
func (sc *BlobTxSidecar) encode(w rlp.EncoderBuffer) {
	blobs := w.List()
	for i := range sc.Blobs {
		w.WriteBytes(sc.Blobs[i][:])
	}
	w.ListEnd(blobs)
	commits := w.List()
	for i := range sc.Commitments {
		w.WriteBytes(sc.Commitments[i][:])
	}
	w.ListEnd(commits)
	proofs := w.List()
	for i := range sc.Proofs {
		w.WriteBytes(sc.Proofs[i][:])
	}
	w.ListEnd(proofs)
}

// copy creates a deep copy of the transaction data and initializes all fields.
func (tx *BlobTx) copy() TxData {
	cpy := &BlobTx{
		Nonce: tx.Nonce,
		To:    tx.To,
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are copied below.
		AccessList: make(AccessList, len(tx.AccessList)),
		BlobHashes: make([]common.Hash, len(tx.BlobHashes)),
		Value:      new(uint256.Int),
		ChainID:    new(uint256.Int),
		GasTipCap:  new(uint256.Int),
		GasFeeCap:  new(uint256.Int),
		BlobFeeCap: new(uint256.Int),
		V:          new(uint256.Int),
		R:          new(uint256.Int),
		S:          new(uint256.Int),
	}
	copy(cpy.AccessList, tx.AccessList)
	copy(cpy.BlobHashes, tx.BlobHashes)
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
	if tx.BlobFeeCap != nil {
		cpy.BlobFeeCap.Set(tx.BlobFeeCap)
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
	if tx.Sidecar != nil {
		cpy.Sidecar = &BlobTxSidecar{
			Blobs:       append([]kzg4844.Blob(nil), tx.Sidecar.Blobs...),
			Commitments: append([]kzg4844.Commitment(nil), tx.Sidecar.Commitments...),
			Proofs:      append([]kzg4844.Proof(nil), tx.Sidecar.Proofs...),
		}
	}
	return cpy
}

// accessors for innerTx.
func (tx *BlobTx) txType() byte        { return BlobTxType }
func (tx *BlobTx) chainID() *big.Int   { return u256ToBig(tx.ChainID) }
func (tx *BlobTx) data() []byte        { return tx.Data }
func (tx *BlobTx) gas() uint64         { return tx.Gas }
func (tx *BlobTx) gasFeeCap() *big.Int { return u256ToBig(tx.GasFeeCap) }
func (tx *BlobTx) gasTipCap() *big.Int { return u256ToBig(tx.GasTipCap) }
func (tx *BlobTx) gasPrice() *big.Int  { return u256ToBig(tx.GasFeeCap) }
func (tx *BlobTx) value() *big.Int     { return u256ToBig(tx.Value) }
func (tx *BlobTx) nonce() uint64       { return tx.Nonce }

func (tx *BlobTx) to() *common.Address {
	tmp := tx.To
	return &tmp
}

func (tx *BlobTx) rawSignatureValues() (v, r, s *big.Int) {
	return u256ToBig(tx.V), u256ToBig(tx.R), u256ToBig(tx.S)
}

func (tx *BlobTx) setSignatureValues(chainID, v, r, s *big.Int) {
	tx.ChainID = uint256.MustFromBig(chainID)
	tx.V = uint256.MustFromBig(v)
	tx.R = uint256.MustFromBig(r)
	tx.S = uint256.MustFromBig(s)
}

// sigHash covers the payload fields with the signature slots omitted,
// prefixed by the transaction type. The sidecar is never part of the hash.
func (tx *BlobTx) sigHash(chainID *big.Int) common.Hash {
	return prefixedRlpHash(BlobTxType, func(w rlp.EncoderBuffer) {
		l := w.List()
		w.WriteBigInt(chainID)
		w.WriteUint64(tx.Nonce)
		w.WriteUint256(tx.GasTipCap)
		w.WriteUint256(tx.GasFeeCap)
		w.WriteUint64(tx.Gas)
		w.WriteBytes(tx.To[:])
		w.WriteUint256(tx.Value)
		w.WriteBytes(tx.Data)
		tx.AccessList.encode(w)
		w.WriteUint256(tx.BlobFeeCap)
		writeHashes(w, tx.BlobHashes)
		w.ListEnd(l)
	})
}

// encode writes the canonical signed payload list (without the type byte).
// The sidecar is not included; use encodeNetwork for the form accepted by
// eth_sendRawTransaction.
func (tx *BlobTx) encode(w rlp.EncoderBuffer) {
	l := w.List()
	w.WriteUint256(tx.ChainID)
	w.WriteUint64(tx.Nonce)
	w.WriteUint256(tx.GasTipCap)
	w.WriteUint256(tx.GasFeeCap)
	w.WriteUint64(tx.Gas)
	w.WriteBytes(tx.To[:])
	w.WriteUint256(tx.Value)
	w.WriteBytes(tx.Data)
	tx.AccessList.encode(w)
	w.WriteUint256(tx.BlobFeeCap)
	writeHashes(w, tx.BlobHashes)
	w.WriteUint256(tx.V)
	w.WriteUint256(tx.R)
	w.WriteUint256(tx.S)
	w.ListEnd(l)
}

// encodeNetwork returns the network encoding of the transaction, i.e.
// type || rlp([payload, blobs, commitments, proofs]).
func (tx *BlobTx) encodeNetwork() ([]byte, error) {
	sc := tx.Sidecar
	if sc == nil {
		return nil, fmt.Errorf("blob transaction without sidecar cannot use network encoding")
	}
	if len(sc.Blobs) != len(sc.Commitments) || len(sc.Blobs) != len(sc.Proofs) {
		return nil, fmt.Errorf("invalid blob sidecar: %d blobs, %d commitments, %d proofs", len(sc.Blobs), len(sc.Commitments), len(sc.Proofs))
	}
	w := rlp.NewEncoderBuffer(nil)
	outer := w.List()
	tx.encode(w)
	sc.encode(w)
	w.ListEnd(outer)
	return append([]byte{BlobTxType}, w.ToBytes()...), nil
}

func writeHashes(w rlp.EncoderBuffer, hashes []common.Hash) {
	l := w.List()
	for i := range hashes {
		w.WriteBytes(hashes[i][:])
	}
	w.ListEnd(l)
}

func u256ToBig(i *uint256.Int) *big.Int {
	if i == nil {
		return new(big.Int)
	}
	return i.ToBig()
}
