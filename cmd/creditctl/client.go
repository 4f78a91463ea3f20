package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/fritznode/creditnode/appserver"
)

// dial opens a plaintext connection to creditd's App control surface.
// A production deployment would layer TLS here the way lncli's own
// getClientConn did; spec's Non-goals place wire security for this
// local-control surface outside scope (it addresses friend-to-friend
// encryption, not App-to-node).
func dial(rpcServer string) (*grpc.ClientConn, error) {
	return grpc.Dial(rpcServer, grpc.WithInsecure())
}

// macaroonPath returns the on-disk path creditd wrote p's macaroon to
// (see cmd/creditd/macaroons.go).
func macaroonPath(macaroonDir string, p appserver.Permission) string {
	return filepath.Join(macaroonDir, string(p)+".macaroon")
}

// callCtx builds the context a control RPC call attaches its
// macaroon and app_request_id to, both carried as gRPC metadata (see
// appserver/server.go's doc comment on why app_request_id travels this
// way rather than as a request field).
func callCtx(macaroonDir string, p appserver.Permission) (context.Context, error) {
	raw, err := ioutil.ReadFile(macaroonPath(macaroonDir, p))
	if err != nil {
		return nil, fmt.Errorf("creditctl: reading %s macaroon: %w", p, err)
	}
	appRequestID := make([]byte, 16)
	if _, err := rand.Read(appRequestID); err != nil {
		return nil, err
	}
	md := metadata.Pairs(
		"macaroon", hex.EncodeToString(raw),
		"app-request-id", hex.EncodeToString(appRequestID),
	)
	return metadata.NewOutgoingContext(context.Background(), md), nil
}

// invoke calls the unary RPC named method against conn, the same thin
// hand-rolled client stub role a real protoc-gen-go-grpc Invoke call
// plays when no generated client type exists to wrap it.
func invoke(ctx context.Context, conn *grpc.ClientConn, method string, req, resp interface{}) error {
	return conn.Invoke(ctx, "/"+appserver.ServiceName+"/"+method, req, resp)
}
