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
	"context"
	"fmt"
	"sync"

	brane "github.com/noise-xyz/brane-sub007"
	"github.com/noise-xyz/brane-sub007/abi"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/types"
)

// ReturnShape declares how a bound method hands its outcome back to the
// host program. View and pure methods return decoded values; state-mutating
// methods return nothing, the submitted transaction, or the mined receipt.
type ReturnShape int

const (
	ReturnsValues ReturnShape = iota
	ReturnsNothing
	ReturnsHash
	ReturnsReceipt
)

func (s ReturnShape) String() string {
	switch s {
	case ReturnsValues:
		return "decoded values"
	case ReturnsNothing:
		return "nothing"
	case ReturnsHash:
		return "transaction hash"
	case ReturnsReceipt:
		return "receipt"
	default:
		return "unknown"
	}
}

// MethodDecl declares one method of a host-side contract interface: its
// solidity name, the number of arguments the host passes, and the shape of
// the result it expects.
type MethodDecl struct {
	Name    string
	NumArgs int
	Returns ReturnShape
}

type routeKind int

const (
	routeRead routeKind = iota
	routeWrite
)

// BoundContract routes a declared contract interface. Every declared
// method is resolved once at bind time to either the read or the write
// path; at call time the wrong entry point is rejected locally without
// touching the backend. Instances are safe for concurrent use.
type BoundContract struct {
	contract *Contract
	routes   map[string]*BoundMethod
	meta     sync.Map // declared name -> *FunctionMetadata
}

// Bind parses the ABI through the process-wide cache, resolves every
// declaration against it by name and argument count, and builds the
// dispatch table. Shape problems surface here, not at call time: unknown
// methods, arity mismatches, and return shapes disagreeing with the
// resolved state mutability all fail the bind.
func Bind(address common.Address, abiJSON string, caller ContractCaller, transactor ContractTransactor, decls []MethodDecl, opts ...Option) (*BoundContract, error) {
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		return nil, err
	}
	c := newContract(address, parsed, caller, transactor, opts...)
	bc := &BoundContract{
		contract: c,
		routes:   make(map[string]*BoundMethod, len(decls)),
	}
	for _, decl := range decls {
		if _, ok := bc.routes[decl.Name]; ok {
			return nil, fmt.Errorf("bind %s: duplicate declaration", decl.Name)
		}
		m, err := resolveDecl(parsed, decl)
		if err != nil {
			return nil, err
		}
		kind := routeWrite
		if m.IsConstant() {
			kind = routeRead
		}
		if kind == routeRead && decl.Returns != ReturnsValues {
			return nil, fmt.Errorf("bind %s: %s method cannot return %s", decl.Name, mutability(m), decl.Returns)
		}
		if kind == routeWrite && decl.Returns == ReturnsValues {
			return nil, fmt.Errorf("bind %s: %s method cannot return decoded values", decl.Name, mutability(m))
		}
		if kind == routeRead && caller == nil {
			return nil, fmt.Errorf("bind %s: read method bound without a caller", decl.Name)
		}
		if kind == routeWrite && transactor == nil {
			return nil, fmt.Errorf("bind %s: write method bound without a transactor", decl.Name)
		}
		bc.routes[decl.Name] = &BoundMethod{
			parent:  bc,
			decl:    decl,
			kind:    kind,
			abiName: m.Name,
		}
	}
	return bc, nil
}

// resolveDecl finds the unique ABI function matching the declared name and
// arity.
func resolveDecl(parsed abi.ABI, decl MethodDecl) (abi.Method, error) {
	var (
		found abi.Method
		n     int
	)
	for _, m := range parsed.Methods {
		if m.RawName == decl.Name && len(m.Inputs) == decl.NumArgs {
			found = m
			n++
		}
	}
	switch n {
	case 0:
		return abi.Method{}, fmt.Errorf("bind %s: no ABI function with %d arguments", decl.Name, decl.NumArgs)
	case 1:
		return found, nil
	default:
		return abi.Method{}, fmt.Errorf("bind %s: %d ABI functions take %d arguments", decl.Name, n, decl.NumArgs)
	}
}

func mutability(m abi.Method) string {
	if m.StateMutability != "" {
		return m.StateMutability
	}
	if m.Constant {
		return "view"
	}
	return "nonpayable"
}

// Method returns the bound route for a declared method name.
func (bc *BoundContract) Method(name string) (*BoundMethod, error) {
	m, ok := bc.routes[name]
	if !ok {
		return nil, fmt.Errorf("method %q not bound", name)
	}
	return m, nil
}

// Contract exposes the low level wrapper underneath the binding.
func (bc *BoundContract) Contract() *Contract { return bc.contract }

// Address returns the bound contract address.
func (bc *BoundContract) Address() common.Address { return bc.contract.address }

// BoundMethod is one routed entry point of a BoundContract.
type BoundMethod struct {
	parent  *BoundContract
	decl    MethodDecl
	kind    routeKind
	abiName string // ABI method key; differs from decl.Name for overloads
}

// Name returns the declared method name.
func (m *BoundMethod) Name() string { return m.decl.Name }

// Call invokes a read-routed method and decodes its outputs. Using it on a
// write-routed method fails with ErrNotReadMethod and performs no RPC.
func (m *BoundMethod) Call(ctx context.Context, opts *CallOpts, args ...interface{}) ([]interface{}, error) {
	if m.kind != routeRead {
		return nil, fmt.Errorf("%w: %s", ErrNotReadMethod, m.decl.Name)
	}
	return m.parent.contract.Call(ctx, opts, m.abiName, args...)
}

// Send submits a write-routed method through the transaction lifecycle.
// Using it on a read-routed method fails with ErrNotWriteMethod and
// performs no RPC, so view and pure methods never reach the signer.
func (m *BoundMethod) Send(ctx context.Context, signer brane.Signer, opts *TxOpts, args ...interface{}) (*types.Transaction, error) {
	if m.kind != routeWrite {
		return nil, fmt.Errorf("%w: %s", ErrNotWriteMethod, m.decl.Name)
	}
	return m.parent.contract.Transact(ctx, signer, opts, m.abiName, args...)
}

// SendAndWait submits like Send and polls for the mined receipt.
func (m *BoundMethod) SendAndWait(ctx context.Context, signer brane.Signer, opts *TxOpts, args ...interface{}) (*types.Receipt, error) {
	if m.kind != routeWrite {
		return nil, fmt.Errorf("%w: %s", ErrNotWriteMethod, m.decl.Name)
	}
	return m.parent.contract.TransactAndWait(ctx, signer, opts, m.abiName, args...)
}

// FunctionMetadata is the resolved call shape of a bound method.
type FunctionMetadata struct {
	Name     string // declared host-side name
	Sig      string // canonical solidity signature
	Selector [4]byte
	Inputs   abi.Arguments
	Outputs  abi.Arguments
	Constant bool // true when routed through the read path
}

// Metadata returns the method's resolved call shape. It is built on first
// use and cached by method identity; every caller observes the same
// instance and the lookup is lock-free once populated.
func (m *BoundMethod) Metadata() *FunctionMetadata {
	if v, ok := m.parent.meta.Load(m.decl.Name); ok {
		return v.(*FunctionMetadata)
	}
	am := m.parent.contract.abi.Methods[m.abiName]
	built := &FunctionMetadata{
		Name:     m.decl.Name,
		Sig:      am.Sig,
		Inputs:   am.Inputs,
		Outputs:  am.Outputs,
		Constant: m.kind == routeRead,
	}
	copy(built.Selector[:], am.ID)
	v, _ := m.parent.meta.LoadOrStore(m.decl.Name, built)
	return v.(*FunctionMetadata)
}
