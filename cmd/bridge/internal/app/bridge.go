package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
	"github.com/example/cbus_bridge/cmd/bridge/internal/ebyte"
	"github.com/example/cbus_bridge/cmd/bridge/internal/slcan"
)

const adapterReadTimeout = 30 * time.Second

// Bridge is a CBUS hub: every frame received from a TCP client or from the
// CAN adapter is relayed to the other participants.
type Bridge struct {
	cfg Config

	mu      sync.RWMutex
	clients map[string]*client

	logger  Logger
	metrics *metrics

	adapterMu sync.Mutex
	adapter   net.Conn
}

func New(cfg Config) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		cfg:     cfg,
		clients: make(map[string]*client),
		logger:  logger,
		metrics: newMetrics(),
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", b.cfg.ListenAddress, err)
	}
	return b.Serve(ctx, ln)
}

// Serve accepts clients on ln, runs the adapter loop and the metrics
// endpoint when configured, and returns once ctx is done and every
// goroutine has stopped. ln is closed on return.
func (b *Bridge) Serve(ctx context.Context, ln net.Listener) error {
	b.logger.Infof("CBUS %s server listening on %s", b.cfg.ClientProtocol, ln.Addr())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		b.logger.Infof("context cancelled")
		_ = ln.Close()
		return nil
	})

	g.Go(func() error {
		return b.acceptClients(ctx, g, ln)
	})

	if b.cfg.AdapterAddress != "" {
		g.Go(func() error {
			return b.runAdapterLoop(ctx)
		})
	}

	if b.cfg.MetricsAddress != "" {
		g.Go(func() error {
			return b.serveMetrics(ctx)
		})
	}

	return g.Wait()
}

func (b *Bridge) acceptClients(ctx context.Context, g *errgroup.Group, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		g.Go(func() error {
			b.serveClient(ctx, conn)
			return nil
		})
	}
}

func (b *Bridge) serveClient(ctx context.Context, conn net.Conn) {
	c := b.registerClient(conn)
	defer b.unregisterClient(c)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			b.handleClientData(c, buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && ctx.Err() == nil {
				c.logger.Warnf("client read: %v", err)
			}
			return
		}
	}
}

func (b *Bridge) registerClient(conn net.Conn) *client {
	id := uuid.NewString()
	c := newClient(id, conn, b.cfg.ClientProtocol, b.cfg.MaxPendingBytes, b.logger.With("client", id))

	b.mu.Lock()
	b.clients[id] = c
	count := len(b.clients)
	b.mu.Unlock()

	b.metrics.clients.Set(float64(count))
	c.logger.Infof("client connected: %s", conn.RemoteAddr())
	return c
}

func (b *Bridge) unregisterClient(c *client) {
	b.mu.Lock()
	delete(b.clients, c.id)
	count := len(b.clients)
	b.mu.Unlock()

	_ = c.conn.Close()
	b.metrics.clients.Set(float64(count))
	c.logger.Infof("client disconnected: %s", c.conn.RemoteAddr())
}

// ClientCount reports the number of connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Bridge) handleClientData(c *client, data []byte) {
	if c.protocol == ProtocolSLCAN {
		b.handleSLCANData(c, data)
		return
	}

	res, discarded := c.frames.feed(data)
	if discarded > 0 {
		b.metrics.bytesDiscarded.Add(float64(discarded))
		c.logger.Warnf("pending data over %d bytes, discarded %d", b.cfg.MaxPendingBytes, discarded)
	}
	if res.Rejected > 0 {
		b.metrics.framesRejected.WithLabelValues(peerClient).Add(float64(res.Rejected))
		c.logger.Debugf("rejected %d malformed frames", res.Rejected)
	}
	for _, f := range res.Frames {
		b.handleClientFrame(c, f)
	}
}

func (b *Bridge) handleSLCANData(c *client, data []byte) {
	lines, discarded := c.lines.feed(data)
	if discarded > 0 {
		b.metrics.bytesDiscarded.Add(float64(discarded))
		c.logger.Warnf("pending line over %d bytes, discarded %d", b.cfg.MaxPendingBytes, discarded)
	}
	for _, line := range lines {
		if line == "" {
			continue
		}
		reply := b.handleSLCANCommand(c, slcan.ParseCommand(line))
		if err := c.write([]byte(reply)); err != nil {
			c.logger.Warnf("%v", err)
			_ = c.conn.Close()
			return
		}
	}
}

func (b *Bridge) handleSLCANCommand(c *client, cmd slcan.Command) string {
	switch cmd.Type {
	case slcan.CommandOpen:
		c.open.Store(true)
		c.logger.Debugf("channel opened")
	case slcan.CommandClose:
		c.open.Store(false)
		c.logger.Debugf("channel closed")
	case slcan.CommandTransmit:
		if !c.open.Load() {
			return slcan.ReplyError
		}
		f, err := slcan.DecodeFrame(cmd.Raw)
		if err != nil {
			b.metrics.framesRejected.WithLabelValues(peerClient).Inc()
			c.logger.Debugf("rejected frame %q: %v", cmd.Raw, err)
			return slcan.ReplyError
		}
		b.handleClientFrame(c, f)
	case slcan.CommandUnknown:
		c.logger.Debugf("unknown command %q", cmd.Raw)
	}
	return cmd.Reply()
}

func (b *Bridge) handleClientFrame(from *client, f cbus.Frame) {
	b.metrics.framesReceived.WithLabelValues(peerClient).Inc()
	from.logger.Debugf("IN : %s", f)

	if b.cfg.Echo {
		b.broadcastFrame(f, from)
	}
	b.forwardToAdapter(f)
}

// broadcastFrame sends f to every open client except the one it came from.
func (b *Bridge) broadcastFrame(f cbus.Frame, from *client) {
	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		if c != from {
			clients = append(clients, c)
		}
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	b.logger.Debugf("OUT: %s", f)
	for _, c := range clients {
		sent, err := c.send(f)
		if err != nil {
			c.logger.Warnf("failed to send frame: %v", err)
			_ = c.conn.Close()
			continue
		}
		if sent {
			b.metrics.framesSent.WithLabelValues(peerClient).Inc()
		}
	}
}

func (b *Bridge) forwardToAdapter(f cbus.Frame) {
	b.adapterMu.Lock()
	defer b.adapterMu.Unlock()
	if b.adapter == nil {
		return
	}

	raw, err := ebyte.SerializeFrame(ebyte.FromCBUS(f))
	if err != nil {
		b.logger.Warnf("unable to encode frame for adapter: %v", err)
		return
	}
	_ = b.adapter.SetWriteDeadline(time.Now().Add(clientWriteTimeout))
	if _, err := b.adapter.Write(raw); err != nil {
		b.logger.Warnf("adapter write: %v", err)
		_ = b.adapter.Close()
		return
	}
	b.metrics.framesSent.WithLabelValues(peerAdapter).Inc()
}

func (b *Bridge) setAdapter(conn net.Conn) {
	b.adapterMu.Lock()
	b.adapter = conn
	b.adapterMu.Unlock()
}

func (b *Bridge) runAdapterLoop(ctx context.Context) error {
	for {
		err := b.connectAndServe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		b.metrics.adapterReconnect.Inc()
		b.logger.Warnf("adapter loop error: %v", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.cfg.ReconnectDelay):
		}
	}
}

func (b *Bridge) connectAndServe(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", b.cfg.AdapterAddress)
	if err != nil {
		return fmt.Errorf("dial adapter: %w", err)
	}
	b.logger.Infof("connected to adapter at %s", conn.RemoteAddr())
	b.setAdapter(conn)
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		b.setAdapter(nil)
		_ = conn.Close()
		b.logger.Infof("disconnected from adapter")
	}()

	buf := make([]byte, 4096)
	frameBuf := make([]byte, 0, 4096)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_ = conn.SetReadDeadline(time.Now().Add(adapterReadTimeout))
		n, err := conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return fmt.Errorf("adapter read: %w", err)
		}

		frameBuf = append(frameBuf, buf[:n]...)
		for len(frameBuf) >= ebyte.FrameSize {
			b.handleAdapterFrame(frameBuf[:ebyte.FrameSize])
			frameBuf = frameBuf[ebyte.FrameSize:]
		}
		frameBuf = append(frameBuf[:0], frameBuf...)
	}
}

func (b *Bridge) handleAdapterFrame(raw []byte) {
	frame, err := ebyte.ParseFrame(raw)
	if err != nil {
		b.metrics.framesRejected.WithLabelValues(peerAdapter).Inc()
		b.logger.Warnf("discarding invalid frame: %v", err)
		return
	}
	f, err := ebyte.ToCBUS(frame)
	if err != nil {
		b.metrics.framesRejected.WithLabelValues(peerAdapter).Inc()
		if errors.Is(err, ebyte.ErrExtendedFrame) {
			b.logger.Warnf("discarding non-CBUS frame: %v", err)
		} else {
			b.logger.Debugf("discarding undecodable frame: %v", err)
		}
		return
	}
	b.metrics.framesReceived.WithLabelValues(peerAdapter).Inc()
	b.logger.Debugf("IN : %s", f)
	b.broadcastFrame(f, nil)
}

func (b *Bridge) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", b.metrics.handler())
	srv := &http.Server{
		Addr:              b.cfg.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	b.logger.Infof("metrics listening on %s", b.cfg.MetricsAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
