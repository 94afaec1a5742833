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

package types

import (
	"encoding/json"
	"fmt"
)

type ackStatus int

const (
	ackSuccess ackStatus = iota
	ackFailure
	ackDeferred
)

// Acknowledgement is the tagged outcome of receiving a packet: a success
// result, a failure message, or deferred. A deferred acknowledgement means
// nothing is written back now; a later, separate WriteAcknowledgement call
// will supply the outcome for the same packet.
type Acknowledgement struct {
	status ackStatus
	result []byte
	errMsg string
}

// NewResultAcknowledgement returns a success acknowledgement carrying the
// receiver's result bytes.
func NewResultAcknowledgement(result []byte) Acknowledgement {
	return Acknowledgement{status: ackSuccess, result: result}
}

// NewErrorAcknowledgement returns a failure acknowledgement carrying a
// human-readable reason.
func NewErrorAcknowledgement(err error) Acknowledgement {
	return Acknowledgement{status: ackFailure, errMsg: err.Error()}
}

// NewDeferredAcknowledgement returns the deferred marker. It has no wire
// form; the transport must not write anything for it.
func NewDeferredAcknowledgement() Acknowledgement {
	return Acknowledgement{status: ackDeferred}
}

// Success reports whether the acknowledgement is a success result.
func (a Acknowledgement) Success() bool { return a.status == ackSuccess }

// Deferred reports whether the acknowledgement is the deferred marker.
func (a Acknowledgement) Deferred() bool { return a.status == ackDeferred }

// Result returns the success result bytes, nil for failure or deferred.
func (a Acknowledgement) Result() []byte { return a.result }

// ErrorMessage returns the failure reason, empty for success or deferred.
func (a Acknowledgement) ErrorMessage() string { return a.errMsg }

// ackEnvelope is the wire shape: exactly one of result or error is set.
type ackEnvelope struct {
	Result []byte  `json:"result,omitempty"`
	Error  *string `json:"error,omitempty"`
}

// Bytes marshals the acknowledgement to its wire form. Deferred
// acknowledgements have none and return an error.
func (a Acknowledgement) Bytes() ([]byte, error) {
	switch a.status {
	case ackSuccess:
		return json.Marshal(ackEnvelope{Result: a.result})
	case ackFailure:
		msg := a.errMsg
		return json.Marshal(ackEnvelope{Error: &msg})
	default:
		return nil, fmt.Errorf("deferred acknowledgement has no wire form")
	}
}

// ParseAcknowledgement decodes acknowledgement wire bytes.
func ParseAcknowledgement(bz []byte) (Acknowledgement, error) {
	var env ackEnvelope
	if err := json.Unmarshal(bz, &env); err != nil {
		return Acknowledgement{}, fmt.Errorf("malformed acknowledgement: %w", err)
	}
	if env.Error != nil {
		return Acknowledgement{status: ackFailure, errMsg: *env.Error}, nil
	}
	return Acknowledgement{status: ackSuccess, result: env.Result}, nil
}
