package app

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/cbus_bridge/cmd/bridge/internal/cbus"
	"github.com/example/cbus_bridge/cmd/bridge/internal/slcan"
)

const clientWriteTimeout = 5 * time.Second

type client struct {
	id       string
	conn     net.Conn
	protocol string
	logger   Logger

	writeMu sync.Mutex
	// open gates delivery to SLCAN clients until they send O.
	open atomic.Bool

	frames *frameBuffer
	lines  *lineBuffer
}

func newClient(id string, conn net.Conn, protocol string, maxPending int, logger Logger) *client {
	c := &client{
		id:       id,
		conn:     conn,
		protocol: protocol,
		logger:   logger,
	}
	switch protocol {
	case ProtocolSLCAN:
		c.lines = newLineBuffer(maxPending)
	default:
		c.frames = newFrameBuffer(maxPending)
		c.open.Store(true)
	}
	return c
}

// encode renders f in the client's protocol.
func (c *client) encode(f cbus.Frame) []byte {
	if c.protocol == ProtocolSLCAN {
		return []byte(slcan.EncodeFrame(f))
	}
	return cbus.EncodeFrame(f)
}

// send delivers a frame if the client's channel is open.
func (c *client) send(f cbus.Frame) (bool, error) {
	if !c.open.Load() {
		return false, nil
	}
	return true, c.write(c.encode(f))
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(clientWriteTimeout))
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write to client %s: %w", c.id, err)
	}
	return nil
}
