// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"
)

// Handler serves the public JSON-RPC service.
func (n *Node) Handler() (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(json.NewCodec(), "application/json")
	server.RegisterCodec(json.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(&PublicService{node: n}, Name); err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(PublicEndpoint, server)
	return mux, nil
}

// Serve listens on [addr] until [ctx] is done.
func (n *Node) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return n.serve(ctx, lis)
}

func (n *Node) serve(ctx context.Context, lis net.Listener) error {
	h, err := n.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:      h,
		ReadTimeout:  n.config.ReadTimeout,
		WriteTimeout: n.config.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving", "addr", lis.Addr(), "endpoint", PublicEndpoint)
		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), n.config.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down server")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
