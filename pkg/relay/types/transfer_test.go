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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransferPayload(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		data      string
		expectErr bool
		amount    string
	}{
		{
			name:   "valid",
			data:   `{"denom":"uatom","amount":"1000000000000000000000","sender":"a","receiver":"b"}`,
			amount: "1000000000000000000000",
		},
		{
			name:      "not_json",
			data:      "binary blob",
			expectErr: true,
		},
		{
			name:      "missing_denom",
			data:      `{"amount":"5","sender":"a","receiver":"b"}`,
			expectErr: true,
		},
		{
			name:      "missing_receiver",
			data:      `{"denom":"uatom","amount":"5","sender":"a"}`,
			expectErr: true,
		},
		{
			name:      "negative_amount",
			data:      `{"denom":"uatom","amount":"-5","sender":"a","receiver":"b"}`,
			expectErr: true,
		},
		{
			name:      "non_numeric_amount",
			data:      `{"denom":"uatom","amount":"lots","sender":"a","receiver":"b"}`,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			payload, err := ParseTransferPayload([]byte(tc.data))
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			amount, err := payload.AmountInt()
			require.NoError(t, err)
			assert.Equal(t, tc.amount, amount.String())
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		raw       string
		expect    time.Duration
		expectErr bool
	}{
		{name: "go_string", raw: `"10m"`, expect: 10 * time.Minute},
		{name: "nanoseconds", raw: `600000000000`, expect: 10 * time.Minute},
		{name: "garbage_string", raw: `"soon"`, expectErr: true},
		{name: "object", raw: `{}`, expectErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var d Duration
			err := json.Unmarshal([]byte(tc.raw), &d)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, d.Duration())
		})
	}
}
