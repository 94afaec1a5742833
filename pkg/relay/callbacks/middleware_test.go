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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
)

type fakeApp struct {
	ack    types.Acknowledgement
	ackErr error
}

func (a *fakeApp) OnChanOpenInit(_ context.Context, _ middleware.ChannelOrder, _ []string, _, _, version string) (string, error) {
	return version, nil
}

func (a *fakeApp) OnChanOpenTry(_ context.Context, _ middleware.ChannelOrder, _ []string, _, _, counterpartyVersion string) (string, error) {
	return counterpartyVersion, nil
}

func (a *fakeApp) OnChanOpenAck(context.Context, string, string, string, string) error { return nil }

func (a *fakeApp) OnChanOpenConfirm(context.Context, string, string) error { return nil }

func (a *fakeApp) OnChanCloseInit(context.Context, string, string) error { return nil }

func (a *fakeApp) OnChanCloseConfirm(context.Context, string, string) error { return nil }

func (a *fakeApp) OnRecvPacket(context.Context, types.Packet) types.Acknowledgement {
	return a.ack
}

func (a *fakeApp) OnAcknowledgementPacket(context.Context, types.Packet, []byte) error {
	return a.ackErr
}

func (a *fakeApp) OnTimeoutPacket(context.Context, types.Packet) error { return a.ackErr }

type fakeSender struct {
	sendErr error
	sends   int
}

func (s *fakeSender) SendPacket(context.Context, string, string, types.Height, uint64, []byte) (uint64, error) {
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.sends++
	return uint64(s.sends), nil
}

func (s *fakeSender) WriteAcknowledgement(context.Context, types.Packet, types.Acknowledgement) error {
	return nil
}

func callbackData(t *testing.T, memo string) []byte {
	t.Helper()
	payload := types.TransferPayload{
		Denom:    "uatom",
		Amount:   "10",
		Sender:   "cosmos1sender",
		Receiver: "cosmos1receiver",
		Memo:     memo,
	}
	bz, err := payload.Bytes()
	require.NoError(t, err)
	return bz
}

func callbackPacket(t *testing.T, memo string) types.Packet {
	t.Helper()
	return types.Packet{
		Sequence:           3,
		SourcePort:         "transfer",
		SourceChannel:      "channel-0",
		DestinationPort:    "transfer",
		DestinationChannel: "channel-1",
		Data:               callbackData(t, memo),
		TimeoutTimestamp:   100,
	}
}

func newCallbackMiddleware(app *fakeApp, sender *fakeSender, executor *fakeExecutor) *Middleware {
	return NewMiddleware(NewDispatcher(executor, DefaultMaxGas), app, sender)
}

const sourceMemo = `{"src_callback":{"address":"wasm1cb"}}`
const destMemo = `{"dest_callback":{"address":"wasm1recv"}}`

func TestSendPacketCallbacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("send_fires_source_callback", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		mw := newCallbackMiddleware(&fakeApp{}, &fakeSender{}, executor)

		seq, err := mw.SendPacket(ctx, "transfer", "channel-0", types.Height{}, 100, callbackData(t, sourceMemo))
		require.NoError(t, err)

		require.Len(t, executor.calls, 1)
		call := executor.calls[0]
		assert.Equal(t, CallbackTypeSource, call.Type)
		assert.Equal(t, "wasm1cb", call.Address)
		assert.Equal(t, seq, call.Packet.Sequence)
	})

	t.Run("failed_send_skips_callback", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		mw := newCallbackMiddleware(&fakeApp{}, &fakeSender{sendErr: errors.New("closed")}, executor)

		_, err := mw.SendPacket(ctx, "transfer", "channel-0", types.Height{}, 100, callbackData(t, sourceMemo))
		require.Error(t, err)
		assert.Empty(t, executor.calls)
	})

	t.Run("no_registration_no_callback", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		mw := newCallbackMiddleware(&fakeApp{}, &fakeSender{}, executor)

		_, err := mw.SendPacket(ctx, "transfer", "channel-0", types.Height{}, 100, callbackData(t, ""))
		require.NoError(t, err)
		assert.Empty(t, executor.calls)
	})
}

func TestRecvPacketCallbacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("destination_callback_sees_acknowledgement", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		app := &fakeApp{ack: types.NewResultAcknowledgement([]byte("ok"))}
		mw := newCallbackMiddleware(app, &fakeSender{}, executor)

		ack := mw.OnRecvPacket(ctx, callbackPacket(t, destMemo))
		assert.True(t, ack.Success())

		require.Len(t, executor.calls, 1)
		call := executor.calls[0]
		assert.Equal(t, CallbackTypeDestination, call.Type)
		expected, err := types.NewResultAcknowledgement([]byte("ok")).Bytes()
		require.NoError(t, err)
		assert.Equal(t, expected, call.Acknowledgement)
	})

	t.Run("deferred_ack_gives_callback_no_ack_bytes", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		app := &fakeApp{ack: types.NewDeferredAcknowledgement()}
		mw := newCallbackMiddleware(app, &fakeSender{}, executor)

		ack := mw.OnRecvPacket(ctx, callbackPacket(t, destMemo))
		assert.True(t, ack.Deferred())

		require.Len(t, executor.calls, 1)
		assert.Nil(t, executor.calls[0].Acknowledgement)
	})

	t.Run("callback_failure_leaves_ack_unchanged", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{err: errors.New("out of gas")}
		app := &fakeApp{ack: types.NewResultAcknowledgement([]byte("ok"))}
		mw := newCallbackMiddleware(app, &fakeSender{}, executor)

		ack := mw.OnRecvPacket(ctx, callbackPacket(t, destMemo))
		assert.True(t, ack.Success())
		assert.Equal(t, []byte("ok"), ack.Result())
	})

	t.Run("source_registration_does_not_fire_on_receive", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		app := &fakeApp{ack: types.NewResultAcknowledgement([]byte("ok"))}
		mw := newCallbackMiddleware(app, &fakeSender{}, executor)

		mw.OnRecvPacket(ctx, callbackPacket(t, sourceMemo))
		assert.Empty(t, executor.calls)
	})
}

func TestAckAndTimeoutCallbacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("acknowledgement_fires_source_callback", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		mw := newCallbackMiddleware(&fakeApp{}, &fakeSender{}, executor)

		ackBytes, err := types.NewResultAcknowledgement([]byte("ok")).Bytes()
		require.NoError(t, err)
		require.NoError(t, mw.OnAcknowledgementPacket(ctx, callbackPacket(t, sourceMemo), ackBytes))

		require.Len(t, executor.calls, 1)
		assert.Equal(t, CallbackTypeAcknowledgement, executor.calls[0].Type)
		assert.Equal(t, ackBytes, executor.calls[0].Acknowledgement)
	})

	t.Run("timeout_fires_source_callback", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		mw := newCallbackMiddleware(&fakeApp{}, &fakeSender{}, executor)

		require.NoError(t, mw.OnTimeoutPacket(ctx, callbackPacket(t, sourceMemo)))
		require.Len(t, executor.calls, 1)
		assert.Equal(t, CallbackTypeTimeout, executor.calls[0].Type)
	})

	t.Run("inner_error_short_circuits_callback", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		app := &fakeApp{ackErr: errors.New("state write failed")}
		mw := newCallbackMiddleware(app, &fakeSender{}, executor)

		require.Error(t, mw.OnAcknowledgementPacket(ctx, callbackPacket(t, sourceMemo), nil))
		require.Error(t, mw.OnTimeoutPacket(ctx, callbackPacket(t, sourceMemo)))
		assert.Empty(t, executor.calls)
	})

	t.Run("malformed_registration_skipped", func(t *testing.T) {
		t.Parallel()
		executor := &fakeExecutor{}
		mw := newCallbackMiddleware(&fakeApp{}, &fakeSender{}, executor)

		require.NoError(t, mw.OnTimeoutPacket(ctx, callbackPacket(t, `{"src_callback":{"gas_limit":1}}`)))
		assert.Empty(t, executor.calls)
	})
}
