package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/GriffinCanCode/coderegistry/internal/domain/loader"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/logging"
	"github.com/GriffinCanCode/coderegistry/internal/infrastructure/tracing"
)

func main() {
	addr := flag.String("addr", ":50051", "Listen address")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	logger := logging.NewDefault()
	if *dev {
		logger = logging.NewDevelopment()
	}
	defer logger.Sync()

	tracer := tracing.New("loader", logger)
	defer tracer.Close()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", *addr, err)
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(tracing.GRPCUnaryInterceptor(tracer)))
	loader.RegisterServer(srv, loader.Instrument(loader.NewMemory(), "memory", nil, logger))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down loader")
		srv.GracefulStop()
	}()

	logger.Info("Loader listening", zap.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil {
		logger.Fatal("Loader stopped", zap.Error(err))
	}
}
