/*
Copyright 2025 The ibc-apps Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package testing

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/Cordtus/ibc-apps/pkg/relay/callbacks"
	"github.com/Cordtus/ibc-apps/pkg/relay/forward"
	"github.com/Cordtus/ibc-apps/pkg/relay/hooks"
	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
	"github.com/Cordtus/ibc-apps/pkg/relay/ratelimit"
)

// StaticOracle reports the same channel value for every pair.
type StaticOracle struct {
	tn    plugins.TypedName
	Value *big.Int
}

var _ ratelimit.OraclePlugin = (*StaticOracle)(nil)

// NewStaticOracle creates an oracle pinned to value.
func NewStaticOracle(name string, value *big.Int) *StaticOracle {
	return &StaticOracle{
		tn:    plugins.TypedName{Type: "static-oracle", Name: name},
		Value: value,
	}
}

func (o *StaticOracle) TypedName() plugins.TypedName { return o.tn }

func (o *StaticOracle) ChannelValue(context.Context, string, string) (*big.Int, error) {
	return new(big.Int).Set(o.Value), nil
}

// MemoryEscrow tracks locked value per (channel, value class) in memory.
type MemoryEscrow struct {
	tn plugins.TypedName

	mu     sync.Mutex
	locked map[string]*big.Int

	// FailLocks and FailRefunds inject escrow faults.
	FailLocks   bool
	FailRefunds bool
}

var _ forward.EscrowPlugin = (*MemoryEscrow)(nil)

// NewMemoryEscrow creates an empty escrow.
func NewMemoryEscrow(name string) *MemoryEscrow {
	return &MemoryEscrow{
		tn:     plugins.TypedName{Type: "memory-escrow", Name: name},
		locked: map[string]*big.Int{},
	}
}

func (e *MemoryEscrow) TypedName() plugins.TypedName { return e.tn }

func escrowKey(channelID, valueClass string) string {
	return channelID + "/" + valueClass
}

func (e *MemoryEscrow) Lock(_ context.Context, channelID, valueClass string, amount *big.Int, _ string) error {
	if e.FailLocks {
		return fmt.Errorf("escrow lock refused")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	key := escrowKey(channelID, valueClass)
	if _, ok := e.locked[key]; !ok {
		e.locked[key] = new(big.Int)
	}
	e.locked[key].Add(e.locked[key], amount)
	return nil
}

func (e *MemoryEscrow) Refund(_ context.Context, channelID, valueClass string, amount *big.Int, owner string) error {
	if e.FailRefunds {
		return fmt.Errorf("escrow account cannot refund %s", owner)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	key := escrowKey(channelID, valueClass)
	balance, ok := e.locked[key]
	if !ok || balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient escrow for %s: have %v, need %s", key, balance, amount)
	}
	balance.Sub(balance, amount)
	return nil
}

// Locked returns the value currently held for a pair.
func (e *MemoryEscrow) Locked(channelID, valueClass string) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	balance, ok := e.locked[escrowKey(channelID, valueClass)]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}

// ScriptedExecutor answers callback executions from per-address scripts and
// records every call.
type ScriptedExecutor struct {
	tn plugins.TypedName

	// Errs maps a target address to the error its execution returns.
	Errs map[string]error
	// GasCosts maps a target address to the gas its execution consumes;
	// costs above the call's gas limit produce an out-of-gas failure.
	GasCosts map[string]uint64

	mu    sync.Mutex
	calls []callbacks.ContractCall
}

var _ callbacks.ExecutorPlugin = (*ScriptedExecutor)(nil)

// NewScriptedExecutor creates an executor with empty scripts: every call
// succeeds consuming no gas.
func NewScriptedExecutor(name string) *ScriptedExecutor {
	return &ScriptedExecutor{
		tn:       plugins.TypedName{Type: "scripted-executor", Name: name},
		Errs:     map[string]error{},
		GasCosts: map[string]uint64{},
	}
}

func (x *ScriptedExecutor) TypedName() plugins.TypedName { return x.tn }

func (x *ScriptedExecutor) Execute(_ context.Context, call callbacks.ContractCall) (uint64, error) {
	x.mu.Lock()
	x.calls = append(x.calls, call)
	x.mu.Unlock()

	gas := x.GasCosts[call.Address]
	if gas > call.GasLimit {
		return call.GasLimit, fmt.Errorf("out of gas: needed %d, limit %d", gas, call.GasLimit)
	}
	return gas, x.Errs[call.Address]
}

// Calls returns the recorded executions.
func (x *ScriptedExecutor) Calls() []callbacks.ContractCall {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]callbacks.ContractCall(nil), x.calls...)
}

// HookProvider hands a fixed list of hook sets to the hooks layer factory.
type HookProvider struct {
	tn   plugins.TypedName
	Sets []hooks.HookSet
}

var _ hooks.SetProviderPlugin = (*HookProvider)(nil)

// NewHookProvider creates a provider over the given sets.
func NewHookProvider(name string, sets ...hooks.HookSet) *HookProvider {
	return &HookProvider{
		tn:   plugins.TypedName{Type: "hook-provider", Name: name},
		Sets: sets,
	}
}

func (p *HookProvider) TypedName() plugins.TypedName { return p.tn }

func (p *HookProvider) HookSets() []hooks.HookSet { return p.Sets }
