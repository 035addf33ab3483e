package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const requestReadTimeout = 5 * time.Second

type daemon struct {
	ctrl *Controller
	log  zerolog.Logger
}

func (d *daemon) handleRequest(ctx context.Context, req IPCRequest) IPCResponse {
	switch req.Command {
	case "status":
		return IPCResponse{Snapshot: d.ctrl.Snapshot()}

	case "toggle":
		snap := d.ctrl.Snapshot()
		desired := !snap.Connected
		if req.Desired != nil {
			desired = *req.Desired
		}
		snap, err := d.ctrl.RequestToggle(ctx, desired)
		if err != nil {
			return IPCResponse{Snapshot: snap, Error: err.Error()}
		}
		return IPCResponse{Snapshot: snap}

	case "refresh":
		snap, err := d.ctrl.Refresh(ctx)
		if err != nil {
			return IPCResponse{Snapshot: snap, Error: err.Error()}
		}
		return IPCResponse{Snapshot: snap}

	default:
		return IPCResponse{Snapshot: d.ctrl.Snapshot(), Error: fmt.Sprintf("unknown command: %q", req.Command)}
	}
}

func (d *daemon) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req IPCRequest
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		resp := IPCResponse{Error: "invalid request: " + err.Error()}
		_ = json.NewEncoder(conn).Encode(resp)
		return
	}

	resp := d.handleRequest(ctx, req)
	if resp.Error != "" {
		d.log.Debug().Str("command", req.Command).Str("error", resp.Error).Msg("request failed")
	}
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		d.log.Warn().Err(err).Msg("write response")
	}
}

// listen refuses to replace the socket of a daemon that still answers.
func listen(sock string) (net.Listener, error) {
	if conn, err := net.Dial("unix", sock); err == nil {
		conn.Close()
		return nil, fmt.Errorf("%w on %s", ErrAlreadyRunning, sock)
	}
	if err := os.Remove(sock); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", sock, err)
	}
	if err := os.Chmod(sock, 0o700); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod %s: %w", sock, err)
	}
	return ln, nil
}

// startWatcher re-queries the device whenever BlueZ reports a connection
// change. Failing to reach the system bus only disables the watcher.
func (d *daemon) startWatcher(ctx context.Context) {
	log := withComponent("bluez")
	w, err := newBluezWatcher(log)
	if err != nil {
		log.Warn().Err(err).Msg("bluez watcher disabled")
		return
	}
	sigCh, err := w.subscribe()
	if err != nil {
		log.Warn().Err(err).Msg("bluez watcher disabled")
		w.close()
		return
	}
	go func() {
		defer w.close()
		w.watch(ctx, sigCh, d.ctrl.Device, func(bool) {
			if _, err := d.ctrl.Refresh(ctx); err != nil {
				log.Debug().Err(err).Msg("refresh skipped")
			}
		})
	}()
}

func runDaemon(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := listen(cfg.SocketPath)
	if err != nil {
		return err
	}
	defer os.Remove(cfg.SocketPath)
	defer ln.Close()

	runner := newExecRunner(time.Duration(cfg.CommandTimeout), withComponent("runner"))
	d := &daemon{
		ctrl: newController(cfg, runner, withComponent("controller")),
		log:  withComponent("daemon"),
	}

	go func() {
		snap := d.ctrl.Initialize(ctx)
		d.log.Info().Str("state", string(snap.State)).Str("device", snap.Device).Bool("connected", snap.Connected).Msg("controller initialized")
		if cfg.WatchBluez && snap.State == StateIdle {
			d.startWatcher(ctx)
		}
	}()

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		d.log.Info().Msg("shutting down")
		ln.Close()
	}()

	d.log.Info().Str("socket", cfg.SocketPath).Msg("listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed by shutdown goroutine.
			return nil
		}
		go d.handleConn(ctx, conn)
	}
}
