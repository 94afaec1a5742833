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

package callbacks

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/Cordtus/ibc-apps/pkg/relay/metrics"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	logutil "github.com/Cordtus/ibc-apps/pkg/relay/util/logging"
)

// ContractCall carries everything a contract callback target gets to see.
type ContractCall struct {
	Type            CallbackType
	Address         string
	GasLimit        uint64
	Packet          types.Packet
	Acknowledgement []byte
}

// ContractExecutor runs a callback target under a gas budget. Returning an
// error (out of gas included) marks the execution failed; the dispatcher
// contains the failure.
type ContractExecutor interface {
	Execute(ctx context.Context, call ContractCall) (gasUsed uint64, err error)
}

// Dispatcher invokes callback targets under a hard gas ceiling. Handler
// failures never propagate: they are logged and counted, and the enclosing
// packet lifecycle event proceeds as if the callback had not been
// registered.
type Dispatcher struct {
	executor ContractExecutor
	maxGas   uint64
}

// NewDispatcher creates a dispatcher. maxGas is the global ceiling any
// per-packet gas limit is capped at.
func NewDispatcher(executor ContractExecutor, maxGas uint64) *Dispatcher {
	return &Dispatcher{executor: executor, maxGas: maxGas}
}

// Dispatch runs one registered callback. It never returns an error; the
// outcome is observable through logs and metrics only.
func (d *Dispatcher) Dispatch(ctx context.Context, registration Registration, call ContractCall) {
	logger := logr.FromContextOrDiscard(ctx)

	call.Address = registration.Address
	call.GasLimit = registration.GasLimit
	if call.GasLimit == 0 || call.GasLimit > d.maxGas {
		call.GasLimit = d.maxGas
	}

	gasUsed, err := d.execute(ctx, call)
	if err != nil {
		metrics.RecordCallback(string(call.Type), metrics.OutcomeFailure, gasUsed)
		logger.V(logutil.DEFAULT).Info("callback execution failed",
			"callbackType", call.Type, "address", call.Address,
			"gasLimit", call.GasLimit, "gasUsed", gasUsed, "err", err.Error())
		return
	}
	metrics.RecordCallback(string(call.Type), metrics.OutcomeSuccess, gasUsed)
	logger.V(logutil.TRACE).Info("callback executed",
		"callbackType", call.Type, "address", call.Address, "gasUsed", gasUsed)
}

// execute shields the caller from panicking executors the same way it
// shields it from erroring ones.
func (d *Dispatcher) execute(ctx context.Context, call ContractCall) (gasUsed uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback target panicked: %v", r)
		}
	}()
	return d.executor.Execute(ctx, call)
}
