// Command creditd runs a mutual-credit payment node: the funder
// single-writer event loop (spec §5), its durable creditdb log, the
// Report/Mutation Stream, and the App control gRPC surface. Modeled on
// cmd/lnd/main.go's wiring (deleted, see DESIGN.md's verbatim-teacher-
// package audit): load config, open the log, build the subsystems,
// start the gRPC server, block until a shutdown signal.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/btcsuite/btclog"
	"google.golang.org/grpc"

	"github.com/fritznode/creditnode/appserver"
	"github.com/fritznode/creditnode/build"
	"github.com/fritznode/creditnode/channeler"
	"github.com/fritznode/creditnode/creditdb"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/indexclient"
	"github.com/fritznode/creditnode/report"
	"github.com/fritznode/creditnode/ticker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "creditd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logWriter, rotator, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	if rotator != nil {
		defer rotator.Close()
	}
	backend := btclog.NewBackend(logWriter)
	useSubsystemLoggers(backend)
	log := build.NewSubLogger("CRDD", backend.Logger)
	log.Infof("starting creditd, credit dir %s", cfg.CreditDir)

	priv, err := loadOrCreateIdentity(cfg.CreditDir)
	if err != nil {
		return err
	}
	identityServer, identityClient, err := newIdentityOracle(priv)
	if err != nil {
		return err
	}
	defer identityServer.Stop()

	store, err := creditdb.Open(filepath.Join(cfg.DataDir, "creditnode.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	localPK := identityClient.PublicKey()
	if storedPK, ok, err := store.LocalPublicKey(); err != nil {
		return err
	} else if !ok {
		if err := store.SetLocalPublicKey(localPK); err != nil {
			return err
		}
	} else {
		localPK = storedPK
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state, err := creditdb.LoadState(ctx, store, localPK, identityClient)
	if err != nil {
		return fmt.Errorf("creditd: replaying creditdb log: %w", err)
	}
	log.Infof("replayed %d friends from creditdb", len(state.Friends))

	hub := report.NewHub()

	// channelerClient/indexClient stand in for the Channeler and Index
	// collaborators spec §1 places entirely outside this repo's scope;
	// a deployment with a real transport swaps these two lines for its
	// own channeler.Client/indexclient.Client implementation. relayclient
	// has no consumer here for the same reason: only a concrete
	// Channeler, not funder or appserver, ever registers a relay
	// forwarder.
	var channelerClient channeler.Client = channeler.NopClient{}
	var indexClient indexclient.Client = indexclient.NopClient{}

	loop := funder.NewEventLoop(state, identityClient, store, hub, channelerClient, ticker.New(defaultLivenessTickInterval))
	loop.Start(ctx)
	defer loop.Stop()

	macaroonSvc, err := loadOrCreateMacaroonService(cfg.CreditDir)
	if err != nil {
		return err
	}
	if err := persistMacaroons(cfg.CreditDir, macaroonSvc); err != nil {
		return err
	}

	srv := appserver.NewServer(loop, state, hub, identityClient, indexClient, macaroonSvc)

	lis, err := net.Listen("tcp", cfg.RPCListen)
	if err != nil {
		return fmt.Errorf("creditd: listening on %s: %w", cfg.RPCListen, err)
	}
	grpcServer := grpc.NewServer()
	appserver.RegisterCreditControllerServer(grpcServer, srv)

	go func() {
		log.Infof("App control surface listening on %s", cfg.RPCListen)
		if err := grpcServer.Serve(lis); err != nil {
			log.Errorf("grpc serve: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down")
	grpcServer.GracefulStop()
	return nil
}
