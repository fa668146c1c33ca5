package app

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
	"github.com/example/cbus_bridge/cmd/bridge/internal/ebyte"
)

type testClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func startBridge(t *testing.T, mutate func(*Config)) (*Bridge, string) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.ReconnectDelay = 50 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	b, err := New(cfg)
	require.NoError(t, err)
	b.logger, err = newLogger(io.Discard, "debug")
	require.NoError(t, err)

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("bridge did not stop")
		}
	})
	return b, ln.Addr().String()
}

func dialClients(t *testing.T, b *Bridge, addr string, n int) []*testClient {
	t.Helper()
	clients := make([]*testClient, n)
	for i := range clients {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		clients[i] = &testClient{conn: conn, r: bufio.NewReader(conn)}
	}
	require.Eventually(t, func() bool { return b.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
	return clients
}

func (c *testClient) send(t *testing.T, s string) {
	t.Helper()
	_, err := c.conn.Write([]byte(s))
	require.NoError(t, err)
}

func (c *testClient) readUntil(t *testing.T, delim byte) string {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	s, err := c.r.ReadString(delim)
	require.NoError(t, err)
	return s
}

func (c *testClient) expectSilence(t *testing.T) {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err := c.r.ReadByte()
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	require.True(t, ne.Timeout())
}

func TestBridgeRelaysGridConnect(t *testing.T) {
	b, addr := startBridge(t, nil)
	clients := dialClients(t, b, addr, 3)

	clients[0].send(t, "junk:S0FE0N400")
	clients[0].send(t, "00A;:S0FE0N2310;")

	for _, c := range clients[1:] {
		require.Equal(t, ":S0FE0N40000A;", c.readUntil(t, ';'))
		require.Equal(t, ":S0FE0N2310;", c.readUntil(t, ';'))
	}
	clients[0].expectSilence(t)

	require.Equal(t, 2.0, testutil.ToFloat64(b.metrics.framesReceived.WithLabelValues(peerClient)))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(b.metrics.framesSent.WithLabelValues(peerClient)) == 4
	}, time.Second, 10*time.Millisecond)
}

func TestBridgeCountsRejectedFrames(t *testing.T) {
	b, addr := startBridge(t, nil)
	clients := dialClients(t, b, addr, 2)

	clients[0].send(t, ":S0FE0N0B;:S0FE0N900;:S0FE0N2310;")
	require.Equal(t, ":S0FE0N2310;", clients[1].readUntil(t, ';'))
	require.Equal(t, 2.0, testutil.ToFloat64(b.metrics.framesRejected.WithLabelValues(peerClient)))
}

func TestBridgeWithoutEcho(t *testing.T) {
	b, addr := startBridge(t, func(cfg *Config) { cfg.Echo = false })
	clients := dialClients(t, b, addr, 2)

	clients[0].send(t, ":S0FE0N2310;")
	clients[1].expectSilence(t)
}

func TestBridgeTracksDisconnects(t *testing.T) {
	b, addr := startBridge(t, nil)
	clients := dialClients(t, b, addr, 2)

	require.NoError(t, clients[0].conn.Close())
	require.Eventually(t, func() bool {
		return b.ClientCount() == 1 && testutil.ToFloat64(b.metrics.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridgeSLCAN(t *testing.T) {
	b, addr := startBridge(t, func(cfg *Config) { cfg.ClientProtocol = ProtocolSLCAN })
	clients := dialClients(t, b, addr, 2)
	sender, receiver := clients[0], clients[1]

	receiver.send(t, "O\r")
	require.Equal(t, "\r", receiver.readUntil(t, '\r'))

	sender.send(t, "t581590000AFB41\r")
	require.Equal(t, "\a", sender.readUntil(t, '\a'))

	sender.send(t, "V\rO\r")
	require.Equal(t, "V0101\r", sender.readUntil(t, '\r'))
	require.Equal(t, "\r", sender.readUntil(t, '\r'))

	sender.send(t, "t581590000AFB41\r")
	require.Equal(t, "z\r", sender.readUntil(t, '\r'))
	require.Equal(t, "t581590000AFB41\r", receiver.readUntil(t, '\r'))

	sender.send(t, "t1231FF\r")
	require.Equal(t, "\a", sender.readUntil(t, '\a'))
	receiver.expectSilence(t)
}

func TestBridgeAdapter(t *testing.T) {
	adapterLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer adapterLn.Close()

	b, addr := startBridge(t, func(cfg *Config) { cfg.AdapterAddress = adapterLn.Addr().String() })

	require.NoError(t, adapterLn.(*net.TCPListener).SetDeadline(time.Now().Add(2*time.Second)))
	adapter, err := adapterLn.Accept()
	require.NoError(t, err)
	defer adapter.Close()
	require.Eventually(t, func() bool {
		b.adapterMu.Lock()
		defer b.adapterMu.Unlock()
		return b.adapter != nil
	}, 2*time.Second, 10*time.Millisecond)

	clients := dialClients(t, b, addr, 1)

	// An extended frame is not CBUS and must be dropped.
	extended, err := ebyte.SerializeFrame(ebyte.Frame{ID: 0x1ABCDEF0, Extended: true, DLC: 1})
	require.NoError(t, err)
	want := cbus.NewFrame(cbus.MustHeader(cbus.MajorNormal, cbus.MinorLow, 1), cbus.NewAccessoryLongEventOn(10, 64321), false)
	raw, err := ebyte.SerializeFrame(ebyte.FromCBUS(want))
	require.NoError(t, err)

	// Split the good frame across writes.
	_, err = adapter.Write(append(extended, raw[:4]...))
	require.NoError(t, err)
	_, err = adapter.Write(raw[4:])
	require.NoError(t, err)

	require.Equal(t, string(cbus.EncodeFrame(want)), clients[0].readUntil(t, ';'))
	require.Equal(t, 1.0, testutil.ToFloat64(b.metrics.framesRejected.WithLabelValues(peerAdapter)))

	clients[0].send(t, ":S0FE0N2310;")
	require.NoError(t, adapter.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, ebyte.FrameSize)
	_, err = io.ReadFull(adapter, buf)
	require.NoError(t, err)

	frame, err := ebyte.ParseFrame(buf)
	require.NoError(t, err)
	got, err := ebyte.ToCBUS(frame)
	require.NoError(t, err)
	require.True(t, got.Equal(cbus.NewFrame(cbus.MustHeader(cbus.MajorEmergency, cbus.MinorHigh, 127), cbus.NewSessionKeepAlive(0x10), false)))
}

func TestBridgeAdapterReconnects(t *testing.T) {
	adapterLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer adapterLn.Close()

	b, _ := startBridge(t, func(cfg *Config) { cfg.AdapterAddress = adapterLn.Addr().String() })

	first, err := adapterLn.Accept()
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := adapterLn.Accept()
	require.NoError(t, err)
	defer second.Close()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(b.metrics.adapterReconnect) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClientProtocol = "gvret"
	_, err := New(cfg)
	require.Error(t, err)
}
