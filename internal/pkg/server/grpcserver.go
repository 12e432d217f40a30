package server

import (
	"net"

	"google.golang.org/grpc"

	"github.com/kestrad/planchette/pkg/logger"
)

// GRPCAPIServer wraps an insecure gRPC server and its listen address.
type GRPCAPIServer struct {
	*grpc.Server

	address string
}

// NewGRPCAPIServer creates a GRPCAPIServer.
func NewGRPCAPIServer(srv *grpc.Server, address string) *GRPCAPIServer {
	return &GRPCAPIServer{Server: srv, address: address}
}

// Run spawns the gRPC server.
func (s *GRPCAPIServer) Run() {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		logger.Error("failed to listen: %s", err.Error())
		return
	}

	logger.Info("[Server] start grpc server at %s", s.address)

	if err := s.Serve(listen); err != nil {
		logger.Error("failed to start grpc server: %s", err.Error())
	}
}

// Stop gracefully stops the gRPC server.
func (s *GRPCAPIServer) Stop() {
	s.GracefulStop()
	logger.Info("[Server] grpc server on %s stopped", s.address)
}
