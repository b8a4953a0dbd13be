// Package server exposes persisted Brainfuck VM instances over Connect
// (HTTP/JSON) and provides a language server for Brainfuck sources.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/bfcloud/config"
	"github.com/chazu/bfcloud/store"
)

// Server owns the instance stores, the worker pool and the HTTP mux.
type Server struct {
	cfg     *config.Config
	records *store.Records
	alloc   *Allocator
	pool    *WorkerPool
	mux     *http.ServeMux
	httpSrv *http.Server
	log     commonlog.Logger
}

// New opens the stores named by cfg and registers every procedure.
func New(cfg *config.Config) (*Server, error) {
	records, err := store.OpenRecords(cfg.Storage.Database)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	files := store.NewFiles(cfg.Storage.Root)

	s := &Server{
		cfg:     cfg,
		records: records,
		alloc:   NewAllocator(records, files),
		pool:    NewWorkerPool(cfg.Server.Workers),
		mux:     http.NewServeMux(),
		log:     commonlog.GetLogger("bfcloud.server"),
	}

	var maxSteps uint64
	if cfg.Run.MaxSteps > 0 {
		maxSteps = uint64(cfg.Run.MaxSteps)
	}
	allocSvc := NewAllocService(s.alloc, s.pool, cfg.VM.MemorySize)
	execSvc := NewExecService(s.alloc, s.pool, maxSteps, cfg.RunTimeout())

	s.httpSrv = &http.Server{Addr: cfg.Server.Addr, Handler: s.mux}

	opt := codecOption()
	s.mux.Handle(AllocNewProcedure, connect.NewUnaryHandler(AllocNewProcedure, allocSvc.New, opt))
	s.mux.Handle(AllocGetProcedure, connect.NewUnaryHandler(AllocGetProcedure, allocSvc.Get, opt))
	s.mux.Handle(AllocDeleteProcedure, connect.NewUnaryHandler(AllocDeleteProcedure, allocSvc.Delete, opt))
	s.mux.Handle(AllocListProcedure, connect.NewUnaryHandler(AllocListProcedure, allocSvc.List, opt))
	s.mux.Handle(ExecUploadProcedure, connect.NewUnaryHandler(ExecUploadProcedure, execSvc.Upload, opt))
	s.mux.Handle(ExecInputProcedure, connect.NewUnaryHandler(ExecInputProcedure, execSvc.Input, opt))
	s.mux.Handle(ExecRunProcedure, connect.NewUnaryHandler(ExecRunProcedure, execSvc.Run, opt))

	return s, nil
}

// Handler returns the HTTP handler serving all procedures.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Server.Addr
	s.log.Infof("bfcloud listening on %s (%d workers)", addr, s.pool.Size())
	s.log.Infof("  Connect (HTTP/JSON): http://%s%s", addr, AllocNewProcedure)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, then stops the workers and closes
// the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	s.pool.Stop()
	return errors.Join(err, s.records.Close())
}
