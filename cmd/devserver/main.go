// Command devserver runs the engine's own test fixtures: a small HTTP
// server (counter, echo, wait, random, health) and a gRPC server exposing
// the standard health-checking service. Neither is the product; they
// exist so integration tests and examples have something real to dispatch
// requests against.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	protocol := flag.String("protocol", "http", "fixture protocol: http or grpc")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	switch *protocol {
	case "http":
		log.Fatal(runHTTP(*addr))
	case "grpc":
		log.Fatal(runGRPC(*addr))
	default:
		fmt.Fprintf(os.Stderr, "unknown --protocol %q (want http or grpc)\n", *protocol)
		os.Exit(1)
	}
}
