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

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/common/hexutil"
)

// Log represents a contract log event.
type Log struct {
	// Consensus fields
	Address common.Address
	Topics  []common.Hash
	Data    []byte

	// Derived fields, filled in by the node.
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	BlockHash   common.Hash
	Index       uint

	// Removed is true if this log was reverted due to a chain reorganisation.
	Removed bool
}

type logJSON struct {
	Address     *common.Address `json:"address"`
	Topics      []common.Hash   `json:"topics"`
	Data        *hexutil.Bytes  `json:"data"`
	BlockNumber *hexutil.Uint64 `json:"blockNumber,omitempty"`
	TxHash      *common.Hash    `json:"transactionHash,omitempty"`
	TxIndex     *hexutil.Uint64 `json:"transactionIndex,omitempty"`
	BlockHash   *common.Hash    `json:"blockHash,omitempty"`
	Index       *hexutil.Uint64 `json:"logIndex,omitempty"`
	Removed     bool            `json:"removed,omitempty"`
}

// MarshalJSON marshals the log in its wire representation.
func (l Log) MarshalJSON() ([]byte, error) {
	var enc logJSON
	addr := l.Address
	enc.Address = &addr
	enc.Topics = l.Topics
	data := hexutil.Bytes(l.Data)
	enc.Data = &data
	number := hexutil.Uint64(l.BlockNumber)
	enc.BlockNumber = &number
	hash := l.TxHash
	enc.TxHash = &hash
	txIndex := hexutil.Uint64(l.TxIndex)
	enc.TxIndex = &txIndex
	blockHash := l.BlockHash
	enc.BlockHash = &blockHash
	index := hexutil.Uint64(l.Index)
	enc.Index = &index
	enc.Removed = l.Removed
	return json.Marshal(&enc)
}

// UnmarshalJSON unmarshals a log from its wire representation.
func (l *Log) UnmarshalJSON(input []byte) error {
	var dec logJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Address == nil {
		return errors.New("missing required field 'address' for Log")
	}
	if dec.Data == nil {
		return errors.New("missing required field 'data' for Log")
	}
	l.Address = *dec.Address
	l.Topics = dec.Topics
	l.Data = *dec.Data
	if dec.BlockNumber != nil {
		l.BlockNumber = uint64(*dec.BlockNumber)
	}
	if dec.TxHash != nil {
		l.TxHash = *dec.TxHash
	}
	if dec.TxIndex != nil {
		l.TxIndex = uint(*dec.TxIndex)
	}
	if dec.BlockHash != nil {
		l.BlockHash = *dec.BlockHash
	}
	if dec.Index != nil {
		l.Index = uint(*dec.Index)
	}
	l.Removed = dec.Removed
	return nil
}
