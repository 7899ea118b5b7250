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
	"encoding/json"
	"errors"
	"math/big"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/common/hexutil"
)

const (
	// ReceiptStatusFailed is the status code of a transaction if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of a transaction if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt represents the result of a mined transaction.
type Receipt struct {
	// Consensus fields
	Type              uint8
	Status            uint64
	CumulativeGasUsed uint64
	Logs              []*Log

	// Implementation fields, filled in by the node from the block and
	// transaction context.
	TxHash            common.Hash
	ContractAddress   common.Address // set for contract creations, zero otherwise
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	BlobGasUsed       uint64
	BlobGasPrice      *big.Int
	BlockHash         common.Hash
	BlockNumber       *big.Int
	TransactionIndex  uint
}

// receiptJSON is the wire representation of a receipt as returned by
// eth_getTransactionReceipt.
type receiptJSON struct {
	Type              *hexutil.Uint64 `json:"type,omitempty"`
	Status            *hexutil.Uint64 `json:"status"`
	CumulativeGasUsed *hexutil.Uint64 `json:"cumulativeGasUsed"`
	Logs              []*Log          `json:"logs"`
	TxHash            *common.Hash    `json:"transactionHash"`
	ContractAddress   *common.Address `json:"contractAddress"`
	GasUsed           *hexutil.Uint64 `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice,omitempty"`
	BlobGasUsed       *hexutil.Uint64 `json:"blobGasUsed,omitempty"`
	BlobGasPrice      *hexutil.Big    `json:"blobGasPrice,omitempty"`
	BlockHash         *common.Hash    `json:"blockHash,omitempty"`
	BlockNumber       *hexutil.Big    `json:"blockNumber,omitempty"`
	TransactionIndex  *hexutil.Uint64 `json:"transactionIndex,omitempty"`
}

// MarshalJSON marshals the receipt in its wire representation.
func (r Receipt) MarshalJSON() ([]byte, error) {
	var enc receiptJSON
	typ := hexutil.Uint64(r.Type)
	enc.Type = &typ
	status := hexutil.Uint64(r.Status)
	enc.Status = &status
	cumulative := hexutil.Uint64(r.CumulativeGasUsed)
	enc.CumulativeGasUsed = &cumulative
	enc.Logs = r.Logs
	if enc.Logs == nil {
		enc.Logs = []*Log{}
	}
	hash := r.TxHash
	enc.TxHash = &hash
	if r.ContractAddress != (common.Address{}) {
		addr := r.ContractAddress
		enc.ContractAddress = &addr
	}
	used := hexutil.Uint64(r.GasUsed)
	enc.GasUsed = &used
	if r.EffectiveGasPrice != nil {
		enc.EffectiveGasPrice = (*hexutil.Big)(r.EffectiveGasPrice)
	}
	if r.BlobGasUsed > 0 {
		blobUsed := hexutil.Uint64(r.BlobGasUsed)
		enc.BlobGasUsed = &blobUsed
	}
	if r.BlobGasPrice != nil {
		enc.BlobGasPrice = (*hexutil.Big)(r.BlobGasPrice)
	}
	if r.BlockHash != (common.Hash{}) {
		bh := r.BlockHash
		enc.BlockHash = &bh
	}
	if r.BlockNumber != nil {
		enc.BlockNumber = (*hexutil.Big)(r.BlockNumber)
	}
	index := hexutil.Uint64(r.TransactionIndex)
	enc.TransactionIndex = &index
	return json.Marshal(&enc)
}

// UnmarshalJSON unmarshals a receipt from its wire representation.
func (r *Receipt) UnmarshalJSON(input []byte) error {
	var dec receiptJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Status == nil {
		return errors.New("missing required field 'status' for Receipt")
	}
	if dec.CumulativeGasUsed == nil {
		return errors.New("missing required field 'cumulativeGasUsed' for Receipt")
	}
	if dec.TxHash == nil {
		return errors.New("missing required field 'transactionHash' for Receipt")
	}
	if dec.GasUsed == nil {
		return errors.New("missing required field 'gasUsed' for Receipt")
	}
	if dec.Type != nil {
		r.Type = uint8(*dec.Type)
	}
	r.Status = uint64(*dec.Status)
	r.CumulativeGasUsed = uint64(*dec.CumulativeGasUsed)
	r.Logs = dec.Logs
	r.TxHash = *dec.TxHash
	if dec.ContractAddress != nil {
		r.ContractAddress = *dec.ContractAddress
	}
	r.GasUsed = uint64(*dec.GasUsed)
	if dec.EffectiveGasPrice != nil {
		r.EffectiveGasPrice = (*big.Int)(dec.EffectiveGasPrice)
	}
	if dec.BlobGasUsed != nil {
		r.BlobGasUsed = uint64(*dec.BlobGasUsed)
	}
	if dec.BlobGasPrice != nil {
		r.BlobGasPrice = (*big.Int)(dec.BlobGasPrice)
	}
	if dec.BlockHash != nil {
		r.BlockHash = *dec.BlockHash
	}
	if dec.BlockNumber != nil {
		r.BlockNumber = (*big.Int)(dec.BlockNumber)
	}
	if dec.TransactionIndex != nil {
		r.TransactionIndex = uint(*dec.TransactionIndex)
	}
	return nil
}
