package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/mdns"

	"LiveBoard/internal/config"
	lbnet "LiveBoard/internal/net"
	"LiveBoard/internal/server"
	"LiveBoard/internal/store"
)

const shutdownTimeout = 5 * time.Second

// host is a board server running in this process.
type host struct {
	http   *http.Server
	server *server.Server
	store  store.Store
	mdns   *mdns.Server
	errc   chan error
}

func startHost(cfg *config.Config, ln net.Listener) (*host, error) {
	st, err := store.Open(cfg.Store, cfg.DBPath)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}

	hub := server.NewHub(st, slog.Default())
	srv := server.New(hub, st, server.Options{
		UploadDir:      cfg.UploadDir,
		MaxFileBytes:   cfg.MaxFileBytes(),
		MaxFiles:       cfg.MaxFiles,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	h := &host{
		http: &http.Server{
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		server: srv,
		store:  st,
		errc:   make(chan error, 1),
	}
	go func() {
		if err := h.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.errc <- err
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port
	slog.Info("[HTTP] board server listening", "addr", ln.Addr().String(), "store", cfg.Store)

	if cfg.MDNS {
		m, err := lbnet.Advertise(port)
		if err != nil {
			slog.Warn("[MDNS] advertising failed", "err", err)
		} else {
			h.mdns = m
			slog.Info("[MDNS] advertising", "service", lbnet.ServiceType, "port", port)
		}
	}
	return h, nil
}

func (h *host) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if h.mdns != nil {
		errs = append(errs, h.mdns.Shutdown())
	}
	// hijacked websocket connections are not closed by Shutdown
	h.server.Close()
	errs = append(errs, h.http.Shutdown(ctx))
	errs = append(errs, h.store.Close())
	return errors.Join(errs...)
}
