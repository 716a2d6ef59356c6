// Command gridsim-node runs one tile of a simulation whose tiles live in
// separate processes. Start one node per tile, all with the same -sim,
// -seed, -tiles, -codec, -set and -peers flags and each with its own -index.
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/crc32"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"gridsim/internal/app"
	"gridsim/internal/core"
	simcore "gridsim/pkg/core"
	"gridsim/pkg/halo"
	"gridsim/pkg/sims"
	_ "gridsim/pkg/sims/briansbrain"
	_ "gridsim/pkg/sims/diffusion"
	_ "gridsim/pkg/sims/life"
)

func main() {
	cfg := app.NewConfig()
	cfg.TPS = 0
	cfg.Bind(flag.CommandLine)
	index := flag.Int("index", 0, "this node's tile, in row-major order")
	peers := flag.String("peers", "", "comma-separated listen addresses of every tile, in row-major order")
	listen := flag.String("listen", "", "address to listen on (defaults to this tile's peer address)")
	dialTimeout := flag.Duration("dial-timeout", 30*time.Second, "how long to wait for every neighbor to connect")
	flag.Parse()

	topo, err := sims.ParseTiles(cfg.Tiles)
	if err != nil {
		log.Fatal(err)
	}
	addrs := strings.Split(*peers, ",")
	if len(addrs) != topo.Len() {
		log.Fatalf("-peers lists %d addresses for %d tiles", len(addrs), topo.Len())
	}
	if *index < 0 || *index >= topo.Len() {
		log.Fatalf("-index %d outside %d tiles", *index, topo.Len())
	}
	self := topo.Coord(*index)
	if *listen == "" {
		*listen = addrs[*index]
	}

	factory, ok := simcore.Sims()[cfg.Sim]
	if !ok {
		log.Fatalf("unknown sim %q", cfg.Sim)
	}
	r, err := factory(cfg.SimConfig())
	if err != nil {
		log.Fatalf("%s: %v", cfg.Sim, err)
	}
	node, ok := r.(sims.Joiner)
	if !ok {
		log.Fatalf("%s cannot run as a tile node", cfg.Sim)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("tile %v listening on %s", self, ln.Addr())
	dialCtx, cancel := context.WithTimeout(ctx, *dialTimeout)
	conns, err := halo.DialMesh(dialCtx, topo, self, addrs, ln)
	cancel()
	ln.Close()
	if err != nil {
		log.Fatalf("tile %v: %v", self, err)
	}
	defer conns.Close()
	// Closing the links on interrupt unblocks this node and fails its
	// neighbors' next exchange.
	context.AfterFunc(ctx, func() { conns.Close() })

	node.Reset(cfg.Seed)
	if err := node.Join(self, conns.Links()); err != nil {
		log.Fatalf("tile %v: %v", self, err)
	}
	log.Printf("tile %v joined %dx%d mesh, running %s", self, topo.Cols, topo.Rows, cfg)

	pace := core.NewFixedStep(cfg.TPS)
	start := time.Now()
	for node.Steps() < cfg.Steps {
		if err := pace.Wait(ctx); err != nil {
			log.Fatalf("tile %v interrupted after %d steps", self, node.Steps())
		}
		if err := node.Step(); err != nil {
			log.Fatalf("tile %v step %d: %v", self, node.Steps()+1, err)
		}
	}
	cells := node.Cells()
	active := 0
	for _, c := range cells {
		if c != 0 {
			active++
		}
	}
	fmt.Printf("tile %v: %d steps in %v, %d active cells, checksum %08x\n",
		self, node.Steps(), time.Since(start).Round(time.Millisecond), active, crc32.ChecksumIEEE(cells))
}
