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

// relayd wires a middleware stack from a YAML configuration against an
// in-memory transport pair, runs a small scripted traffic loop, and serves
// the middleware metrics. It exists as reference wiring and as a smoke-test
// vehicle; real hosts embed the packages directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Cordtus/ibc-apps/pkg/relay/config/loader"
	"github.com/Cordtus/ibc-apps/pkg/relay/metrics"
	"github.com/Cordtus/ibc-apps/pkg/relay/middleware"
	"github.com/Cordtus/ibc-apps/pkg/relay/plugins"
	"github.com/Cordtus/ibc-apps/pkg/relay/types"
	logutil "github.com/Cordtus/ibc-apps/pkg/relay/util/logging"
	testutil "github.com/Cordtus/ibc-apps/pkg/relay/util/testing"
	"github.com/Cordtus/ibc-apps/version"
)

const (
	transferPort = "transfer"
	channelAtoB  = "channel-0"
	channelBtoA  = "channel-1"
)

func main() {
	configPath := flag.String("config", "", "path to the stack configuration YAML")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve prometheus metrics on")
	verbosity := flag.Int("v", logutil.DEFAULT, "log verbosity")
	flag.Parse()

	logger, err := logutil.NewLogger(*verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	logger.Info("starting relayd", "commitSHA", version.CommitSHA, "buildRef", version.BuildRef)

	if *configPath == "" {
		logutil.Fatal(logger, fmt.Errorf("missing flag"), "a -config file is required")
	}
	configBytes, err := os.ReadFile(*configPath)
	if err != nil {
		logutil.Fatal(logger, err, "failed to read configuration", "path", *configPath)
	}

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	loader.RegisterAllLayers()

	// Both chains share the collaborator plugins; each gets its own stack.
	handle := plugins.NewHandle(ctx)
	handle.AddPlugin("value-oracle", testutil.NewStaticOracle("value-oracle", big.NewInt(1_000_000)))
	handle.AddPlugin("escrow", testutil.NewMemoryEscrow("escrow"))
	handle.AddPlugin("executor", testutil.NewScriptedExecutor("executor"))
	handle.AddPlugin("hook-provider", testutil.NewHookProvider("hook-provider"))

	config, err := loader.LoadConfig(configBytes, handle, logger)
	if err != nil {
		logutil.Fatal(logger, err, "failed to load configuration", "path", *configPath)
	}

	chainA, appA, err := buildChain("chain-a", channelAtoB, channelBtoA, config)
	if err != nil {
		logutil.Fatal(logger, err, "failed to assemble chain-a stack")
	}
	chainB, _, err := buildChain("chain-b", channelBtoA, channelAtoB, config)
	if err != nil {
		logutil.Fatal(logger, err, "failed to assemble chain-b stack")
	}
	relayer := testutil.NewRelayer(chainA, chainB)

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		logger.Info("serving metrics", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			logutil.Fatal(logger, err, "metrics server failed")
		}
	}()

	logger.Info("relaying scripted traffic", "from", chainA.Name, "to", chainB.Name)
	for i := 0; ; i++ {
		payload := types.TransferPayload{
			Denom:    "uatom",
			Amount:   "25",
			Sender:   "cosmos1sender",
			Receiver: "cosmos1receiver",
		}
		timeout := uint64(time.Now().Add(time.Minute).UnixNano())
		if _, err := appA.SendTransfer(ctx, transferPort, channelAtoB, payload, timeout); err != nil {
			logger.Error(err, "transfer rejected", "iteration", i)
		} else if err := relayer.RelayNext(ctx, chainA); err != nil {
			logger.Error(err, "relay failed", "iteration", i)
		}
		if _, err := relayer.FlushAcks(ctx); err != nil {
			logger.Error(err, "ack delivery failed", "iteration", i)
		}
		time.Sleep(time.Second)
	}
}

// buildChain assembles one side: transport, terminal app, and the configured
// middleware layers around it.
func buildChain(name, localChannel, remoteChannel string, config *loader.Config) (*testutil.Chain, *testutil.MockApp, error) {
	transport := testutil.NewMemoryTransport()
	transport.AddRoute(localChannel, transferPort, remoteChannel)

	builder := middleware.NewBuilder()
	app := testutil.NewMockApp(builder.AppSender())
	builder.Terminal(app)
	config.Apply(builder)

	stack, err := builder.Build(transport)
	if err != nil {
		return nil, nil, err
	}
	if err := stack.Finalize(); err != nil {
		return nil, nil, err
	}
	return &testutil.Chain{Name: name, Transport: transport, Handler: stack.Top()}, app, nil
}
