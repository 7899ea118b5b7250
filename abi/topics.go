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

package abi

import (
	"fmt"
	"math/big"

	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/crypto"
)

// MakeTopics converts a filter query argument list into a filter topic set.
// Each outer element describes the alternatives for one topic position, so
// the result can be handed to a log filter as-is.
func MakeTopics(query ...[]interface{}) ([][]common.Hash, error) {
	topics := make([][]common.Hash, len(query))
	for i, filter := range query {
		for _, rule := range filter {
			topic := common.Hash{}

			switch rule := rule.(type) {
			case common.Hash:
				copy(topic[:], rule[:])
			case common.Address:
				copy(topic[common.HashLength-common.AddressLength:], rule[:])
			case *big.Int:
				copy(topic[:], U256Bytes(rule))
			case bool:
				if rule {
					topic[common.HashLength-1] = 1
				}
			case string:
				// dynamic types are matched by the hash of their content
				hash := crypto.Keccak256Hash([]byte(rule))
				copy(topic[:], hash[:])
			case []byte:
				hash := crypto.Keccak256Hash(rule)
				copy(topic[:], hash[:])
			default:
				// native integer kinds share the two's-complement encoding
				n, err := toBigInt(rule)
				if err != nil {
					return nil, fmt.Errorf("unsupported indexed type: %T", rule)
				}
				copy(topic[:], U256Bytes(n))
			}

			topics[i] = append(topics[i], topic)
		}
	}
	return topics, nil
}
