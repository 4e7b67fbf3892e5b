package main

import (
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// runGRPC starts a minimal reflection-enabled gRPC fixture exposing the
// standard health-checking service (grpc.health.v1.Health/Check), so the
// gRPC request factory's reflection descriptor path has a live target to
// resolve against without shipping a hand-compiled proto.
func runGRPC(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	log.Printf("devserver: grpc fixture listening on %s", addr)
	return srv.Serve(lis)
}
