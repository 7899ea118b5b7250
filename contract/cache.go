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

package contract

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/noise-xyz/brane-sub007/abi"
	"github.com/noise-xyz/brane-sub007/crypto"
)

// abiCacheSize bounds the process-wide cache of parsed interface
// descriptions. Entries are keyed by the Keccak-256 hash of the JSON text.
const abiCacheSize = 64

var parsedABIs, _ = lru.New(abiCacheSize)

// ParseABI parses a JSON interface description. Results are shared
// process-wide, so binding many instances of the same contract pays for
// parsing once.
func ParseABI(abiJSON string) (abi.ABI, error) {
	key := crypto.Keccak256Hash([]byte(abiJSON))
	if cached, ok := parsedABIs.Get(key); ok {
		return cached.(abi.ABI), nil
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return abi.ABI{}, err
	}
	parsedABIs.Add(key, parsed)
	return parsed, nil
}
