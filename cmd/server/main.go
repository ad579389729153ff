package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/flavien-hugs/unsta-sfs/internal/api"
	"github.com/flavien-hugs/unsta-sfs/internal/config"
	"github.com/flavien-hugs/unsta-sfs/internal/db"
	"github.com/flavien-hugs/unsta-sfs/internal/logging"
	"github.com/flavien-hugs/unsta-sfs/internal/middleware"
	"github.com/flavien-hugs/unsta-sfs/internal/s3"
	"github.com/flavien-hugs/unsta-sfs/internal/service"
	"github.com/flavien-hugs/unsta-sfs/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env)

	gdb, err := db.Open(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open metadata store", "error", err)
	}
	meta := store.New(gdb)

	objects, err := s3.New(cfg)
	if err != nil {
		logger.Fatal("failed to init object store client", "error", err)
	}

	buckets := service.NewBuckets(objects, meta, cfg, logger)
	media := service.NewMedia(objects, meta, cfg, logger)
	public := service.NewPublicAccess(meta)
	access := api.NewAccessChecker(cfg, logger)

	r := api.NewServer(cfg, logger, buckets, media, public, access).Router()

	srv := &http.Server{
		Addr:              ":" + cfg.HttpPort,
		Handler:           middleware.Recoverer(r, logger),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       0, // allow long-running uploads/downloads; rely on LB timeouts
		WriteTimeout:      0,
		MaxHeaderBytes:    1 << 20, // 1MB headers
	}
	logger.Info("server starting", "addr", srv.Addr, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}
