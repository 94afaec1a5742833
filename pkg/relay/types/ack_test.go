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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcknowledgementWireForm(t *testing.T) {
	t.Parallel()

	t.Run("success_carries_result", func(t *testing.T) {
		t.Parallel()
		ack := NewResultAcknowledgement([]byte("ok"))
		bz, err := ack.Bytes()
		require.NoError(t, err)

		parsed, err := ParseAcknowledgement(bz)
		require.NoError(t, err)
		assert.True(t, parsed.Success())
		assert.False(t, parsed.Deferred())
		assert.Equal(t, []byte("ok"), parsed.Result())
	})

	t.Run("failure_carries_reason", func(t *testing.T) {
		t.Parallel()
		ack := NewErrorAcknowledgement(errors.New("quota exceeded"))
		bz, err := ack.Bytes()
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"quota exceeded"}`, string(bz))

		parsed, err := ParseAcknowledgement(bz)
		require.NoError(t, err)
		assert.False(t, parsed.Success())
		assert.Equal(t, "quota exceeded", parsed.ErrorMessage())
	})

	t.Run("deferred_has_no_wire_form", func(t *testing.T) {
		t.Parallel()
		ack := NewDeferredAcknowledgement()
		assert.True(t, ack.Deferred())
		_, err := ack.Bytes()
		require.Error(t, err)
	})

	t.Run("malformed_bytes_rejected", func(t *testing.T) {
		t.Parallel()
		_, err := ParseAcknowledgement([]byte("not json"))
		require.Error(t, err)
	})
}

func TestPacketValidate(t *testing.T) {
	t.Parallel()
	valid := Packet{
		Sequence:           1,
		SourcePort:         "transfer",
		SourceChannel:      "channel-0",
		DestinationPort:    "transfer",
		DestinationChannel: "channel-1",
		Data:               []byte("{}"),
		TimeoutTimestamp:   100,
	}
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(p *Packet)
	}{
		{name: "zero_sequence", mutate: func(p *Packet) { p.Sequence = 0 }},
		{name: "missing_source", mutate: func(p *Packet) { p.SourceChannel = "" }},
		{name: "missing_destination", mutate: func(p *Packet) { p.DestinationPort = "" }},
		{name: "empty_data", mutate: func(p *Packet) { p.Data = nil }},
		{name: "no_timeout", mutate: func(p *Packet) { p.TimeoutTimestamp = 0 }},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			packet := valid
			tc.mutate(&packet)
			assert.Error(t, packet.Validate())
		})
	}
}
