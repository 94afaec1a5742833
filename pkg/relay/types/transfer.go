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
	"math/big"
	"strings"
)

// TransferPayload is the fungible-transfer packet body. Amount is a decimal
// string because values routinely exceed uint64 for 18-decimal
// denominations. Memo is the free-form annotation field middlewares parse
// their metadata out of.
type TransferPayload struct {
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Memo     string `json:"memo,omitempty"`
}

// ParseTransferPayload decodes a transfer packet body.
func ParseTransferPayload(data []byte) (TransferPayload, error) {
	var p TransferPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return TransferPayload{}, fmt.Errorf("malformed transfer payload: %w", err)
	}
	return p, p.Validate()
}

// Validate checks the payload fields the middlewares rely on.
func (p TransferPayload) Validate() error {
	if p.Denom == "" {
		return fmt.Errorf("transfer payload denom must be set")
	}
	if strings.TrimSpace(p.Receiver) == "" {
		return fmt.Errorf("transfer payload receiver must be set")
	}
	if _, err := p.AmountInt(); err != nil {
		return err
	}
	return nil
}

// AmountInt parses the decimal amount string. Amounts are unsigned
// magnitudes; negative or non-numeric strings are rejected.
func (p TransferPayload) AmountInt() (*big.Int, error) {
	amount, ok := new(big.Int).SetString(p.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("transfer payload amount %q is not a base-10 integer", p.Amount)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("transfer payload amount %q is negative", p.Amount)
	}
	return amount, nil
}

// Bytes marshals the payload to its packet-data form.
func (p TransferPayload) Bytes() ([]byte, error) {
	return json.Marshal(p)
}
