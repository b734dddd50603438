package main

import (
	"context"
	"log"

	"notebook-ai-be/internal/bootstrap"
	"notebook-ai-be/internal/config"
	"notebook-ai-be/internal/server"
	"notebook-ai-be/internal/tracer"
	"notebook-ai-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	if err := container.IngestionService.Consume(context.Background()); err != nil {
		log.Fatalf("Failed to start ingestion consumer: %v", err)
	}
	if err := container.GenerationWorkerService.Consume(context.Background()); err != nil {
		log.Fatalf("Failed to start generation worker: %v", err)
	}

	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
