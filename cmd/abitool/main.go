// Copyright 2025 The brane Authors
// This file is part of brane.
//
// brane is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// brane is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with brane. If not, see <http://www.gnu.org/licenses/>.

// abitool inspects contract ABIs and executes read calls against a node.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/noise-xyz/brane-sub007/abi"
	"github.com/noise-xyz/brane-sub007/common"
	"github.com/noise-xyz/brane-sub007/common/hexutil"
	"github.com/noise-xyz/brane-sub007/contract"
	"github.com/noise-xyz/brane-sub007/ethclient"
	"github.com/noise-xyz/brane-sub007/rpc"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML file supplying endpoint defaults",
	}
	endpointFlag = &cli.StringFlag{
		Name:  "endpoint",
		Usage: "JSON-RPC endpoint URL",
	}
	chainIDFlag = &cli.Int64Flag{
		Name:  "chain-id",
		Usage: "expected chain id, 0 accepts any chain",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "per-request timeout",
		Value: 30 * time.Second,
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log transport traffic to stderr",
	}
	abiFlag = &cli.StringFlag{
		Name:     "abi",
		Usage:    "path to the contract ABI JSON file",
		Required: true,
	}
	toFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "contract address",
		Required: true,
	}
	blockFlag = &cli.Int64Flag{
		Name:  "block",
		Usage: "block number to call against, -1 means latest",
		Value: -1,
	}
)

func main() {
	app := &cli.App{
		Name:  "abitool",
		Usage: "inspect contract ABIs and call read methods",
		Flags: []cli.Flag{configFlag, endpointFlag, chainIDFlag, timeoutFlag, verboseFlag},
		Commands: []*cli.Command{
			{
				Name:      "selector",
				Usage:     "print the 4-byte selector of a function signature",
				ArgsUsage: "<signature>",
				Action:    printSelector,
			},
			{
				Name:      "topic",
				Usage:     "print the topic hash of an event signature",
				ArgsUsage: "<signature>",
				Action:    printTopic,
			},
			{
				Name:      "encode",
				Usage:     "encode a method call into calldata",
				ArgsUsage: "<method> [args...]",
				Flags:     []cli.Flag{abiFlag},
				Action:    encodeCall,
			},
			{
				Name:      "decode",
				Usage:     "decode return data of a method",
				ArgsUsage: "<method> <hexdata>",
				Flags:     []cli.Flag{abiFlag},
				Action:    decodeResult,
			},
			{
				Name:      "call",
				Usage:     "execute a read method against a node",
				ArgsUsage: "<method> [args...]",
				Flags:     []cli.Flag{abiFlag, toFlag, blockFlag},
				Action:    callContract,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printSelector(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: %s selector <signature>", ctx.App.Name)
	}
	sel := abi.Selector(ctx.Args().First())
	fmt.Println(hexutil.Encode(sel[:]))
	return nil
}

func printTopic(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: %s topic <signature>", ctx.App.Name)
	}
	fmt.Println(abi.EventTopic(ctx.Args().First()).Hex())
	return nil
}

func encodeCall(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("usage: %s encode --abi <file> <method> [args...]", ctx.App.Name)
	}
	parsed, err := loadABI(ctx.String(abiFlag.Name))
	if err != nil {
		return err
	}
	method := ctx.Args().First()
	vals, err := parseArgs(parsed, method, ctx.Args().Tail())
	if err != nil {
		return err
	}
	input, err := parsed.Pack(method, vals...)
	if err != nil {
		return err
	}
	fmt.Println(hexutil.Encode(input))
	return nil
}

func decodeResult(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("usage: %s decode --abi <file> <method> <hexdata>", ctx.App.Name)
	}
	parsed, err := loadABI(ctx.String(abiFlag.Name))
	if err != nil {
		return err
	}
	data, err := hexutil.Decode(ctx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid return data: %w", err)
	}
	out, err := parsed.Unpack(ctx.Args().First(), data)
	if err != nil {
		return err
	}
	for _, v := range out {
		fmt.Println(formatValue(v))
	}
	return nil
}

func callContract(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("usage: %s call --abi <file> --to <addr> <method> [args...]", ctx.App.Name)
	}
	addr := ctx.String(toFlag.Name)
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid contract address %q", addr)
	}
	parsed, err := loadABI(ctx.String(abiFlag.Name))
	if err != nil {
		return err
	}
	method := ctx.Args().First()
	vals, err := parseArgs(parsed, method, ctx.Args().Tail())
	if err != nil {
		return err
	}

	backend, err := dialBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	opts := new(contract.CallOpts)
	if n := ctx.Int64(blockFlag.Name); n >= 0 {
		opts.BlockNumber = big.NewInt(n)
	}
	c := contract.New(common.HexToAddress(addr), parsed, backend)

	callCtx, cancel := context.WithTimeout(context.Background(), ctx.Duration(timeoutFlag.Name))
	defer cancel()
	out, err := c.Call(callCtx, opts, method, vals...)
	if err != nil {
		return err
	}
	for _, v := range out {
		fmt.Println(formatValue(v))
	}
	return nil
}

// fileConfig is the TOML shape accepted by --config.
type fileConfig struct {
	Endpoint string `toml:"endpoint"`
	ChainID  int64  `toml:"chain-id"`
}

// dialBackend builds the node client from flags, falling back to the
// config file for values not set on the command line.
func dialBackend(ctx *cli.Context) (*ethclient.Client, error) {
	endpoint := ctx.String(endpointFlag.Name)
	chainID := ctx.Int64(chainIDFlag.Name)

	if path := ctx.String(configFlag.Name); path != "" {
		var cfg fileConfig
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if endpoint == "" {
			endpoint = cfg.Endpoint
		}
		if !ctx.IsSet(chainIDFlag.Name) && cfg.ChainID != 0 {
			chainID = cfg.ChainID
		}
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no endpoint: pass --%s or set it in --%s", endpointFlag.Name, configFlag.Name)
	}

	log := zerolog.Nop()
	if ctx.Bool(verboseFlag.Name) {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	transport, err := rpc.NewClient(endpoint, rpc.Config{Logger: &log})
	if err != nil {
		return nil, err
	}
	opts := []ethclient.Option{ethclient.WithLogger(log)}
	if chainID != 0 {
		opts = append(opts, ethclient.WithChainID(big.NewInt(chainID)))
	}
	return ethclient.New(transport, opts...), nil
}

func loadABI(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, err
	}
	return contract.ParseABI(string(data))
}

// parseArgs converts command line strings into the Go values the packer
// expects for the method's declared input types.
func parseArgs(parsed abi.ABI, method string, raw []string) ([]interface{}, error) {
	m, ok := parsed.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %q not found in ABI", method)
	}
	if len(raw) != len(m.Inputs) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", m.Sig, len(m.Inputs), len(raw))
	}
	vals := make([]interface{}, len(raw))
	for i, s := range raw {
		v, err := parseArg(m.Inputs[i].Type, s)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, m.Inputs[i].Type, err)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseArg(t abi.Type, s string) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return n, nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy, abi.FixedBytesTy:
		return hexutil.Decode(s)
	default:
		return nil, fmt.Errorf("type %s is not supported on the command line", t)
	}
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case common.Address:
		return v.Hex()
	case common.Hash:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	case *big.Int:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
