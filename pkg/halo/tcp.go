package halo

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gridsim/pkg/core"
)

// hello is the first message on every TCP link. It names the dialing tile and
// the direction it dialed toward.
type hello struct {
	Dir  uint8
	X, Y uint32
}

// redialDelay spaces out attempts to reach a peer that is not listening yet.
const redialDelay = 100 * time.Millisecond

// DialMesh connects the tile at self to its eight neighbors over TCP. addrs
// holds every tile's listen address, indexed by Topology.Index, and ln must
// be listening on addrs[Index(self)]. Each tile dials its east, north-east,
// north and north-west neighbors and accepts the other four links, so all
// tiles must call DialMesh. Unreachable peers are redialed until ctx ends.
// The listener is only good for closing afterwards.
func DialMesh(ctx context.Context, topo Topology, self Coord, addrs []string, ln net.Listener) (Conns, error) {
	var conns Conns
	if err := topo.Validate(); err != nil {
		return conns, err
	}
	if len(addrs) != topo.Len() {
		return conns, fmt.Errorf("%w: %d addresses for %d tiles", ErrTopology, len(addrs), topo.Len())
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	if tl, ok := ln.(*net.TCPListener); ok {
		// Unblock Accept once the mesh fails or ctx ends.
		stop := context.AfterFunc(ctx, func() { tl.SetDeadline(time.Now()) })
		defer stop()
	}
	g.Go(func() error {
		for i := 0; i < len(outbound); i++ {
			conn, err := ln.Accept()
			if err != nil {
				return fmt.Errorf("accept: %w", err)
			}
			d, err := readHello(conn, topo, self)
			if err != nil {
				conn.Close()
				return err
			}
			mu.Lock()
			dup := conns[d] != nil
			if !dup {
				conns[d] = conn
			}
			mu.Unlock()
			if dup {
				conn.Close()
				return fmt.Errorf("%w: second %s link", ErrTopology, directionName(d))
			}
		}
		return nil
	})
	for _, d := range outbound {
		peer := topo.Neighbor(self, core.Moore.Offset(d))
		addr := addrs[topo.Index(peer)]
		g.Go(func() error {
			conn, err := redial(ctx, addr)
			if err != nil {
				return fmt.Errorf("dial %s neighbor %v at %s: %w", directionName(d), peer, addr, err)
			}
			mu.Lock()
			conns[d] = conn
			mu.Unlock()
			msg := hello{Dir: uint8(d), X: uint32(self.X), Y: uint32(self.Y)}
			return binary.Write(conn, binary.BigEndian, msg)
		})
	}
	if err := g.Wait(); err != nil {
		conns.Close()
		return Conns{}, err
	}
	return conns, nil
}

func redial(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(redialDelay):
		}
	}
}

// readHello validates the greeting on an accepted link and returns the local
// direction the link serves.
func readHello(conn net.Conn, topo Topology, self Coord) (core.Direction, error) {
	var msg hello
	if err := binary.Read(conn, binary.BigEndian, &msg); err != nil {
		return 0, fmt.Errorf("read hello: %w", err)
	}
	if int(msg.Dir) >= core.Moore.Total() {
		return 0, fmt.Errorf("%w: hello names direction %d", ErrTopology, msg.Dir)
	}
	sent := core.Direction(msg.Dir)
	from := Coord{X: int(msg.X), Y: int(msg.Y)}
	local := core.Moore.Inv(sent)
	if want := topo.Neighbor(self, core.Moore.Offset(local)); from != want {
		return 0, fmt.Errorf("%w: %s link from tile %v, expected %v", ErrTopology, directionName(local), from, want)
	}
	return local, nil
}
