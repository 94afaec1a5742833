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

package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	errutil "github.com/Cordtus/ibc-apps/pkg/relay/util/error"
)

type fakeApp struct {
	trace *[]string
	ack   types.Acknowledgement
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
	*a.trace = append(*a.trace, "inner")
	return a.ack
}

func (a *fakeApp) OnAcknowledgementPacket(context.Context, types.Packet, []byte) error {
	*a.trace = append(*a.trace, "inner")
	return nil
}

func (a *fakeApp) OnTimeoutPacket(context.Context, types.Packet) error {
	*a.trace = append(*a.trace, "inner")
	return nil
}

type fakeSender struct {
	trace *[]string
}

func (s *fakeSender) SendPacket(context.Context, string, string, types.Height, uint64, []byte) (uint64, error) {
	*s.trace = append(*s.trace, "outward")
	return 1, nil
}

func (s *fakeSender) WriteAcknowledgement(context.Context, types.Packet, types.Acknowledgement) error {
	return nil
}

func hookPacket() types.Packet {
	return types.Packet{
		Sequence:           1,
		SourcePort:         "transfer",
		SourceChannel:      "channel-0",
		DestinationPort:    "transfer",
		DestinationChannel: "channel-1",
		Data:               []byte("{}"),
		TimeoutTimestamp:   100,
	}
}

func buildHooks(t *testing.T, trace *[]string, ack types.Acknowledgement, sets ...HookSet) middleware.Middleware {
	t.Helper()
	layer, err := NewLayer("test-hooks", sets)
	require.NoError(t, err)
	return layer.Wrap(&fakeApp{trace: trace, ack: ack}, &fakeSender{trace: trace})
}

func TestRecvHooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("before_inner_after_order", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		mw := buildHooks(t, &trace, types.NewResultAcknowledgement([]byte("ok")), HookSet{
			Name: "tracer",
			Recv: RecvPacketHooks{
				Before: func(context.Context, types.Packet) error {
					trace = append(trace, "before")
					return nil
				},
				After: func(_ context.Context, _ types.Packet, ack types.Acknowledgement) error {
					trace = append(trace, "after")
					assert.True(t, ack.Success())
					return nil
				},
			},
		})

		ack := mw.OnRecvPacket(ctx, hookPacket())
		assert.True(t, ack.Success())
		assert.Equal(t, []string{"before", "inner", "after"}, trace)
	})

	t.Run("override_replaces_inner", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		mw := buildHooks(t, &trace, types.NewResultAcknowledgement([]byte("inner result")), HookSet{
			Name: "replacer",
			Recv: RecvPacketHooks{
				Override: func(_ context.Context, _ middleware.Handler, _ types.Packet) types.Acknowledgement {
					trace = append(trace, "override")
					return types.NewErrorAcknowledgement(errors.New("replaced"))
				},
			},
		})

		ack := mw.OnRecvPacket(ctx, hookPacket())
		assert.False(t, ack.Success())
		assert.Equal(t, []string{"override"}, trace)
	})

	t.Run("override_may_delegate_to_inner", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		mw := buildHooks(t, &trace, types.NewResultAcknowledgement([]byte("ok")), HookSet{
			Name: "delegator",
			Recv: RecvPacketHooks{
				Override: func(ctx context.Context, next middleware.Handler, packet types.Packet) types.Acknowledgement {
					trace = append(trace, "override")
					return next.OnRecvPacket(ctx, packet)
				},
			},
		})

		ack := mw.OnRecvPacket(ctx, hookPacket())
		assert.True(t, ack.Success())
		assert.Equal(t, []string{"override", "inner"}, trace)
	})

	t.Run("before_failure_does_not_block_inner", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		mw := buildHooks(t, &trace, types.NewResultAcknowledgement([]byte("ok")), HookSet{
			Name: "flaky",
			Recv: RecvPacketHooks{
				Before: func(context.Context, types.Packet) error {
					return errors.New("hook storage offline")
				},
			},
		})

		ack := mw.OnRecvPacket(ctx, hookPacket())
		assert.True(t, ack.Success())
		assert.Equal(t, []string{"inner"}, trace)
	})

	t.Run("sets_run_in_registration_order", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		before := func(name string) func(context.Context, types.Packet) error {
			return func(context.Context, types.Packet) error {
				trace = append(trace, name)
				return nil
			}
		}
		mw := buildHooks(t, &trace, types.NewResultAcknowledgement([]byte("ok")),
			HookSet{Name: "first", Recv: RecvPacketHooks{Before: before("first")}},
			HookSet{Name: "second", Recv: RecvPacketHooks{Before: before("second")}},
		)

		mw.OnRecvPacket(ctx, hookPacket())
		assert.Equal(t, []string{"first", "second", "inner"}, trace)
	})
}

func TestAckAndTimeoutHooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ack_hooks_wrap_inner", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		mw := buildHooks(t, &trace, types.Acknowledgement{}, HookSet{
			Name: "tracer",
			Ack: AckPacketHooks{
				Before: func(context.Context, types.Packet, []byte) error {
					trace = append(trace, "before")
					return nil
				},
				After: func(_ context.Context, _ types.Packet, _ []byte, err error) error {
					trace = append(trace, "after")
					assert.NoError(t, err)
					return nil
				},
			},
		})

		require.NoError(t, mw.OnAcknowledgementPacket(ctx, hookPacket(), []byte(`{"result":"AQ=="}`)))
		assert.Equal(t, []string{"before", "inner", "after"}, trace)
	})

	t.Run("timeout_override_replaces_inner", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		overrideErr := errors.New("handled out of band")
		mw := buildHooks(t, &trace, types.Acknowledgement{}, HookSet{
			Name: "replacer",
			Timeout: TimeoutPacketHooks{
				Override: func(context.Context, middleware.Handler, types.Packet) error {
					trace = append(trace, "override")
					return overrideErr
				},
			},
		})

		err := mw.OnTimeoutPacket(ctx, hookPacket())
		assert.ErrorIs(t, err, overrideErr)
		assert.Equal(t, []string{"override"}, trace)
	})
}

func TestSendHooks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("send_hooks_wrap_outward", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		mw := buildHooks(t, &trace, types.Acknowledgement{}, HookSet{
			Name: "tracer",
			Send: SendPacketHooks{
				Before: func(context.Context, string, string, []byte) error {
					trace = append(trace, "before")
					return nil
				},
				After: func(_ context.Context, _, _ string, sequence uint64, err error) error {
					trace = append(trace, "after")
					assert.Equal(t, uint64(1), sequence)
					assert.NoError(t, err)
					return nil
				},
			},
		})

		seq, err := mw.SendPacket(ctx, "transfer", "channel-0", types.Height{}, 100, []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), seq)
		assert.Equal(t, []string{"before", "outward", "after"}, trace)
	})

	t.Run("send_override_controls_outward", func(t *testing.T) {
		t.Parallel()
		trace := []string{}
		mw := buildHooks(t, &trace, types.Acknowledgement{}, HookSet{
			Name: "replacer",
			Send: SendPacketHooks{
				Override: func(_ context.Context, _ middleware.Sender, _, _ string, _ types.Height, _ uint64, _ []byte) (uint64, error) {
					trace = append(trace, "override")
					return 99, nil
				},
			},
		})

		seq, err := mw.SendPacket(ctx, "transfer", "channel-0", types.Height{}, 100, []byte("{}"))
		require.NoError(t, err)
		assert.Equal(t, uint64(99), seq)
		assert.Equal(t, []string{"override"}, trace)
	})
}

func TestNewLayerOverrideConflict(t *testing.T) {
	t.Parallel()

	override := func(context.Context, middleware.Handler, types.Packet) types.Acknowledgement {
		return types.NewResultAcknowledgement(nil)
	}

	t.Run("two_overrides_on_same_point_rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewLayer("conflicted", []HookSet{
			{Name: "first", Recv: RecvPacketHooks{Override: override}},
			{Name: "second", Recv: RecvPacketHooks{Override: override}},
		})
		require.Error(t, err)
		assert.Equal(t, errutil.BadConfiguration, errutil.CanonicalCode(err))
	})

	t.Run("overrides_on_distinct_points_allowed", func(t *testing.T) {
		t.Parallel()
		_, err := NewLayer("split", []HookSet{
			{Name: "first", Recv: RecvPacketHooks{Override: override}},
			{Name: "second", Timeout: TimeoutPacketHooks{
				Override: func(context.Context, middleware.Handler, types.Packet) error { return nil },
			}},
		})
		require.NoError(t, err)
	})
}
