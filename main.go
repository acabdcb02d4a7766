package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"

	"LiveBoard/internal/board"
	"LiveBoard/internal/config"
	lbnet "LiveBoard/internal/net"
	"LiveBoard/internal/render"
	"LiveBoard/internal/ui"
)

const browseTimeout = 2 * time.Second

func main() {
	args := os.Args[1:]
	var err error
	if len(args) > 0 && args[0] == "serve" {
		err = runServer(args[1:])
	} else {
		err = runClient(args)
	}
	if err != nil {
		slog.Error("[MAIN] exiting", "err", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(log)
	if cfg.Debug {
		render.SetLogger(log)
	}
}

func runServer(args []string) error {
	cfg, err := config.Load("liveboard serve", args)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	h, err := startHost(cfg, ln)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		slog.Info("[MAIN] shutting down")
	case err := <-h.errc:
		slog.Error("[HTTP] server failed", "err", err)
	}
	return h.shutdown()
}

func runClient(args []string) error {
	cfg, err := config.Load("liveboard", args)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	link, boardID, err := parseTarget(cfg.Args)
	if err != nil {
		return err
	}

	var h *host
	if link == nil {
		link, h, err = resolve(cfg, boardID)
		if err != nil {
			return err
		}
	}
	if h != nil {
		defer h.shutdown()
	}

	share := link.String()
	if h != nil || isLoopback(link.Host) {
		if l, err := lbnet.ShareLink(link.Port, link.BoardID); err == nil {
			share = l.String()
		}
	}
	slog.Info("[MAIN] opening board", "board", link.BoardID, "server", link.WebSocketURL(), "share", share)

	a := app.NewWithID("io.liveboard")
	view := ui.NewBoardWidget()
	status := ui.NewStatus()

	client := lbnet.NewClient(lbnet.ClientOptions{
		URL:      link.WebSocketURL(),
		OnStatus: status.Connected,
	})
	b := board.New(client, board.Options{
		BoardID: link.BoardID,
		OnPaint: view.Paint,
		OnError: status.Error,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)
	go b.Run(ctx)

	ui.RunApp(a, view, status, b, share)
	return nil
}

// parseTarget reads the optional positional argument: a board link or a
// bare board id.
func parseTarget(args []string) (*lbnet.Link, string, error) {
	if len(args) == 0 {
		return nil, "default", nil
	}
	if strings.HasPrefix(args[0], lbnet.LinkScheme+"://") {
		l, err := lbnet.ParseLink(args[0])
		if err != nil {
			return nil, "", err
		}
		return &l, l.BoardID, nil
	}
	return nil, args[0], nil
}

// resolve finds a server for the board: one advertised on the LAN, else
// an embedded one on the configured address, else whatever already
// listens there.
func resolve(cfg *config.Config, boardID string) (*lbnet.Link, *host, error) {
	if cfg.MDNS {
		ctx, cancel := context.WithTimeout(context.Background(), browseTimeout)
		addrs, err := lbnet.Browse(ctx, browseTimeout)
		cancel()
		if err != nil {
			slog.Warn("[MDNS] browse failed", "err", err)
		}
		for _, addr := range addrs {
			if l, err := linkFor(addr, boardID); err == nil {
				slog.Info("[MDNS] found board server", "addr", addr)
				return l, nil, nil
			}
		}
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err == nil {
		h, err := startHost(cfg, ln)
		if err != nil {
			return nil, nil, err
		}
		port := ln.Addr().(*net.TCPAddr).Port
		return &lbnet.Link{Host: "localhost", Port: port, BoardID: boardID}, h, nil
	}
	slog.Info("[MAIN] address in use, joining the local server", "addr", cfg.Addr)

	_, port, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: addr %q", config.ErrInvalid, cfg.Addr)
	}
	l, err := linkFor(net.JoinHostPort("localhost", port), boardID)
	return l, nil, err
}

func linkFor(addr, boardID string) (*lbnet.Link, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	return &lbnet.Link{Host: host, Port: port, BoardID: boardID}, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
