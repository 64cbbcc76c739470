package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"lattice/internal/bus"
	"lattice/internal/crypto"
	"lattice/internal/logging"
	"lattice/internal/router"
	"lattice/internal/types"
)

// lattice-echo is a minimal lattice peer. Without -send it serves an echo
// worker on the subject; with -send it issues a single invocation and prints
// the reply. Connection settings come from the LATTICE_* environment.
func main() {
	var (
		subject     = flag.String("subject", "svc.echo", "Subject to serve or invoke")
		operation   = flag.String("operation", "echo", "Operation name carried by outbound invocations")
		send        = flag.String("send", "", "Payload to invoke with; empty runs the echo worker")
		keyFile     = flag.String("key-file", "", "Hex-encoded signing key file; empty generates an ephemeral key")
		logLevel    = flag.String("log-level", "info", "Log level")
		metricsAddr = flag.String("metrics-addr", "", "Optional listen address for the Prometheus endpoint, e.g. :9095")
	)
	flag.Parse()

	logging.Init(*logLevel)
	logger := logging.NewDefaultLogger()

	b, err := bus.New(logger)
	if err != nil {
		logger.Error("Failed to initialize bus", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, b.Metrics().Handler()); err != nil {
				logger.Error("Metrics endpoint failed", "addr", *metricsAddr, "error", err)
			}
		}()
	}

	if *send != "" {
		invoke(b, logger, *subject, *operation, *keyFile, []byte(*send))
		return
	}

	serve(b, logger, *subject)
}

func invoke(b *bus.DistributedBus, logger logging.Logger, subject, operation, keyFile string, payload []byte) {
	signer, err := loadSigner(keyFile)
	if err != nil {
		logger.Error("Failed to load signing key", "error", err)
		os.Exit(1)
	}

	inv, err := types.NewInvocation(signer, subject, operation, payload)
	if err != nil {
		logger.Error("Failed to build invocation", "error", err)
		os.Exit(1)
	}

	resp, err := b.Invoke(subject, *inv)
	if err != nil {
		logger.Error("Invoke failed", "subject", subject, "error", err)
		os.Exit(1)
	}
	if resp.IsError() {
		logger.Error("Invocation rejected", "subject", subject, "error", resp.Error)
		os.Exit(1)
	}
	fmt.Println(string(resp.Payload))
}

func serve(b *bus.DistributedBus, logger logging.Logger, subject string) {
	invocations := make(chan types.Invocation)
	responses := make(chan types.InvocationResponse)

	rt := router.New()
	rt.AddRoute(subject, invocations, responses)

	go func() {
		for inv := range invocations {
			logger.Info("Echoing invocation",
				"invocation", inv.ID, "origin", inv.Origin, "operation", inv.Operation)
			responses <- types.SuccessResponse(&inv, inv.Payload)
		}
	}()

	pair, ok := rt.GetPair(subject)
	if !ok {
		logger.Error("No route registered", "subject", subject)
		os.Exit(1)
	}
	if err := b.Subscribe(subject, pair.Invocations, pair.Responses); err != nil {
		logger.Error("Failed to subscribe", "subject", subject, "error", err)
		os.Exit(1)
	}
	logger.Info("Echo worker running", "subject", subject)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutting down")
}

func loadSigner(keyFile string) (crypto.Signer, error) {
	if keyFile != "" {
		return crypto.NewECDSASignerFromFile(keyFile)
	}
	return crypto.GenerateECDSAKey()
}
