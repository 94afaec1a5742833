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

package ratelimit

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	errutil "github.com/Cordtus/ibc-apps/pkg/relay/util/error"
)

// ChannelValueOracle reports the total value of a value class on a channel,
// the denominator of every percent-based admission check. It is supplied by
// the host application.
type ChannelValueOracle interface {
	ChannelValue(ctx context.Context, channelID, valueClass string) (*big.Int, error)
}

type flowKey struct {
	channel    string
	valueClass string
}

// Limiter is the admission-control engine. It exclusively owns the flow
// ledger and the quota table; no other component mutates them. With no quota
// configured for a pair every check passes: rate limiting is an optional
// layer and fails open.
type Limiter struct {
	mu     sync.RWMutex
	quotas map[flowKey]Quota
	flows  map[flowKey]*Flow

	oracle ChannelValueOracle
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a Limiter backed by the given channel value oracle.
func NewLimiter(oracle ChannelValueOracle, opts ...Option) *Limiter {
	l := &Limiter{
		quotas: map[flowKey]Quota{},
		flows:  map[flowKey]*Flow{},
		oracle: oracle,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// --- Governance surface ---

// AddQuota installs a new quota. Adding over an existing quota is an error;
// use UpdateQuota.
func (l *Limiter) AddQuota(q Quota) error {
	if err := q.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := flowKey{q.ChannelID, q.ValueClass}
	if _, ok := l.quotas[key]; ok {
		return fmt.Errorf("quota for channel %s value class %s already exists", q.ChannelID, q.ValueClass)
	}
	l.quotas[key] = q
	return nil
}

// UpdateQuota replaces an existing quota. The flow for the pair is reset so
// the new bounds apply to a clean window.
func (l *Limiter) UpdateQuota(q Quota) error {
	if err := q.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := flowKey{q.ChannelID, q.ValueClass}
	if _, ok := l.quotas[key]; !ok {
		return fmt.Errorf("no quota for channel %s value class %s", q.ChannelID, q.ValueClass)
	}
	l.quotas[key] = q
	delete(l.flows, key)
	return nil
}

// RemoveQuota deletes a quota and its flow.
func (l *Limiter) RemoveQuota(channelID, valueClass string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := flowKey{channelID, valueClass}
	if _, ok := l.quotas[key]; !ok {
		return fmt.Errorf("no quota for channel %s value class %s", channelID, valueClass)
	}
	delete(l.quotas, key)
	delete(l.flows, key)
	return nil
}

// GetQuota returns the quota for a pair, if one is configured.
func (l *Limiter) GetQuota(channelID, valueClass string) (Quota, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	q, ok := l.quotas[flowKey{channelID, valueClass}]
	return q, ok
}

// ListQuotas returns all configured quotas in a stable order.
func (l *Limiter) ListQuotas() []Quota {
	l.mu.RLock()
	defer l.mu.RUnlock()
	quotas := make([]Quota, 0, len(l.quotas))
	for _, q := range l.quotas {
		quotas = append(quotas, q)
	}
	sort.Slice(quotas, func(i, j int) bool {
		if quotas[i].ChannelID != quotas[j].ChannelID {
			return quotas[i].ChannelID < quotas[j].ChannelID
		}
		return quotas[i].ValueClass < quotas[j].ValueClass
	})
	return quotas
}

// GetFlow returns a copy of the current flow for a pair, for inspection.
func (l *Limiter) GetFlow(channelID, valueClass string) (Flow, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.flows[flowKey{channelID, valueClass}]
	if !ok {
		return Flow{}, false
	}
	return Flow{
		Outflow:     new(big.Int).Set(f.Outflow),
		Inflow:      new(big.Int).Set(f.Inflow),
		WindowStart: f.WindowStart,
	}, true
}

// --- Admission checks ---

// CheckSend checks whether sending amount would push the net outflow over
// the quota. Checks do not mutate flow totals; a passing check is followed by
// RecordSend once the send is accepted.
func (l *Limiter) CheckSend(ctx context.Context, channelID, valueClass string, amount *big.Int) error {
	return l.check(ctx, channelID, valueClass, amount, directionSend)
}

// CheckReceive is the symmetric check for inbound packets, using the receive
// percentage with the outflow and inflow roles swapped.
func (l *Limiter) CheckReceive(ctx context.Context, channelID, valueClass string, amount *big.Int) error {
	return l.check(ctx, channelID, valueClass, amount, directionReceive)
}

type direction int

const (
	directionSend direction = iota
	directionReceive
)

func (l *Limiter) check(ctx context.Context, channelID, valueClass string, amount *big.Int, dir direction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := flowKey{channelID, valueClass}
	quota, ok := l.quotas[key]
	if !ok {
		return nil
	}
	flow := l.flowLocked(key, quota)

	channelValue, err := l.oracle.ChannelValue(ctx, channelID, valueClass)
	if err != nil {
		return fmt.Errorf("channel value lookup for %s/%s: %w", channelID, valueClass, err)
	}

	// net is the flow the packet would bring the window to: for sends
	// outflow-inflow+amount, for receives inflow-outflow+amount. The check is
	// net*100 > maxPercent*channelValue, kept in integers to avoid rounding.
	var net *big.Int
	var maxPercent uint64
	if dir == directionSend {
		net = new(big.Int).Sub(flow.Outflow, flow.Inflow)
		maxPercent = quota.MaxPercentSend
	} else {
		net = new(big.Int).Sub(flow.Inflow, flow.Outflow)
		maxPercent = quota.MaxPercentRecv
	}
	net.Add(net, amount)

	lhs := net.Mul(net, big.NewInt(100))
	rhs := new(big.Int).Mul(new(big.Int).SetUint64(maxPercent), channelValue)
	if lhs.Cmp(rhs) > 0 {
		verb := "outflow"
		if dir == directionReceive {
			verb = "inflow"
		}
		return errutil.Error{
			Code: errutil.RateLimitExceeded,
			Msg: fmt.Sprintf("%s of %s %s would exceed %d%% of channel value %s on %s",
				verb, amount, valueClass, maxPercent, channelValue, channelID),
		}
	}
	return nil
}

// --- Flow mutation ---

// RecordSend adds an accepted send to the flow.
func (l *Limiter) RecordSend(channelID, valueClass string, amount *big.Int) {
	l.record(channelID, valueClass, amount, directionSend)
}

// RecordReceive adds an accepted receive to the flow.
func (l *Limiter) RecordReceive(channelID, valueClass string, amount *big.Int) {
	l.record(channelID, valueClass, amount, directionReceive)
}

func (l *Limiter) record(channelID, valueClass string, amount *big.Int, dir direction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := flowKey{channelID, valueClass}
	quota, ok := l.quotas[key]
	if !ok {
		return
	}
	flow := l.flowLocked(key, quota)
	if dir == directionSend {
		flow.Outflow.Add(flow.Outflow, amount)
	} else {
		flow.Inflow.Add(flow.Inflow, amount)
	}
}

// RevertSend undoes a previously recorded send after its packet failed or
// timed out. A send is recorded optimistically before its outcome is known,
// so the undo arrives later; if the window has rolled over in between the
// recorded outflow is already gone and the revert clamps at zero instead of
// crediting the new window.
func (l *Limiter) RevertSend(channelID, valueClass string, amount *big.Int) {
	l.revert(channelID, valueClass, amount, directionSend)
}

// RevertReceive undoes a previously recorded receive whose inner handling
// failed in the same unit of work.
func (l *Limiter) RevertReceive(channelID, valueClass string, amount *big.Int) {
	l.revert(channelID, valueClass, amount, directionReceive)
}

func (l *Limiter) revert(channelID, valueClass string, amount *big.Int, dir direction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := flowKey{channelID, valueClass}
	quota, ok := l.quotas[key]
	if !ok {
		return
	}
	flow := l.flowLocked(key, quota)
	total := flow.Outflow
	if dir == directionReceive {
		total = flow.Inflow
	}
	total.Sub(total, amount)
	if total.Sign() < 0 {
		total.SetInt64(0)
	}
}

// flowLocked returns the rolled-over flow for key, creating it lazily.
// Callers hold l.mu.
func (l *Limiter) flowLocked(key flowKey, quota Quota) *Flow {
	now := l.now()
	flow, ok := l.flows[key]
	if !ok {
		flow = newFlow(now, quota.WindowDuration())
		l.flows[key] = flow
		return flow
	}
	flow.rollover(now, quota.WindowDuration())
	return flow
}
