// Copyright (c) 2025 The DriveNet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command scdbsim drives an SCDB instance from a JSON block log, useful
// for replaying a recorded sequence of coinbase outputs outside a full
// node and logging the resulting active sidechains (count, slot, and
// title). It does not print bundle vote state or a state script.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/wire"
	"github.com/decred/slog"

	"github.com/drivenet/scdb/chaincfg"
	"github.com/drivenet/scdb/scdb"
)

var log = slog.Disabled

type options struct {
	BlockLog string `short:"f" long:"blocklog" description:"path to a JSON block log to replay" required:"true"`
	Network  string `short:"n" long:"network" description:"mainnet, testnet, or simnet" default:"simnet"`
	Verbose  bool   `short:"v" long:"verbose" description:"enable debug logging"`
}

// loggedOutput is the JSON shape of one coinbase output in a block log
// entry.
type loggedOutput struct {
	Value  int64  `json:"value"`
	Script string `json:"script"`
}

// loggedBlock is one JSON block log entry.
type loggedBlock struct {
	Height   uint32         `json:"height"`
	Hash     string         `json:"hash"`
	PrevHash string         `json:"prev_hash"`
	Outputs  []loggedOutput `json:"outputs"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scdbsim:", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		return err
	}

	backendLogger := slog.NewBackend(os.Stdout).Logger("SCDBSIM")
	if opts.Verbose {
		backendLogger.SetLevel(slog.LevelDebug)
	} else {
		backendLogger.SetLevel(slog.LevelInfo)
	}
	log = backendLogger
	scdb.UseLogger(backendLogger)

	params, err := paramsForNetwork(opts.Network)
	if err != nil {
		return err
	}

	blocks, err := loadBlockLog(opts.BlockLog)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return fmt.Errorf("empty block log")
	}

	genesis, err := chainhash.NewHashFromStr(blocks[0].PrevHash)
	if err != nil {
		return fmt.Errorf("parsing genesis hash: %w", err)
	}
	db := scdb.New(params, *genesis)

	for _, b := range blocks {
		blockHash, err := chainhash.NewHashFromStr(b.Hash)
		if err != nil {
			return fmt.Errorf("block %d: parsing hash: %w", b.Height, err)
		}
		prevHash, err := chainhash.NewHashFromStr(b.PrevHash)
		if err != nil {
			return fmt.Errorf("block %d: parsing prev hash: %w", b.Height, err)
		}
		outputs, err := decodeOutputs(b.Outputs)
		if err != nil {
			return fmt.Errorf("block %d: %w", b.Height, err)
		}
		if err := db.Apply(b.Height, *blockHash, *prevHash, outputs); err != nil {
			return fmt.Errorf("block %d: %w", b.Height, err)
		}
	}

	log.Infof("replayed %d blocks, %d active sidechains", len(blocks), db.ActiveSidechainCount())
	for _, info := range db.GetActiveSidechains() {
		log.Infof("slot %d: %q", info.Slot, info.Proposal.Title)
	}
	return nil
}

func paramsForNetwork(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet":
		return chaincfg.MainNetParams(), nil
	case "testnet":
		return chaincfg.TestNetParams(), nil
	case "simnet":
		return chaincfg.SimNetParams(), nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

func loadBlockLog(path string) ([]loggedBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var blocks []loggedBlock
	if err := json.NewDecoder(f).Decode(&blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func decodeOutputs(logged []loggedOutput) ([]scdb.Output, error) {
	outputs := make([]scdb.Output, len(logged))
	for i, o := range logged {
		script, err := hex.DecodeString(o.Script)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = wire.TxOut{Value: o.Value, PkScript: script}
	}
	return outputs, nil
}
