package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jaydevelopsstuff/palm/internal/conn"
	"github.com/jaydevelopsstuff/palm/internal/core"
	"github.com/jaydevelopsstuff/palm/internal/hexfmt"
	"github.com/jaydevelopsstuff/palm/internal/server"
)

func main() {
	var (
		mode    = flag.String("mode", "client", `"client" or "server"`)
		addr    = flag.String("addr", "", "peer address for client mode (host:port)")
		port    = flag.Uint("port", 0, "listen port for server mode")
		tick    = flag.Duration("tick", 250*time.Millisecond, "log poll interval")
		verbose = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	cfg := zap.NewDevelopmentConfig()
	if !*verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "palm:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch *mode {
	case "client":
		if *addr == "" {
			fmt.Fprintln(os.Stderr, "palm: -addr is required in client mode")
			os.Exit(2)
		}
		runClient(logger, *addr, *tick)
	case "server":
		if *port == 0 || *port > 65535 {
			fmt.Fprintln(os.Stderr, "palm: -port is required in server mode")
			os.Exit(2)
		}
		runServer(logger, uint16(*port), *tick)
	default:
		fmt.Fprintf(os.Stderr, "palm: unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

func runClient(logger *zap.Logger, addr string, tick time.Duration) {
	c := conn.New(conn.Options{Logger: logger})
	c.StartClient(addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	lines := readLines(os.Stdin)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	seen := 0
	for {
		select {
		case <-ticker.C:
			printNew("", c.DrainLogs(), &seen)
			if c.NetState() == core.StateInactive {
				// Session over (failed connect, peer close, or our own
				// shutdown); pick up the trailing entries and leave.
				time.Sleep(tick)
				printNew("", c.DrainLogs(), &seen)
				return
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				c.Shutdown()
				continue
			}
			if line == "/quit" {
				c.Shutdown()
				continue
			}
			if line == "" {
				continue
			}
			payload, err := hexfmt.Decode(line)
			if err != nil {
				fmt.Println("!", err)
				continue
			}
			if err := c.SendData(payload); err != nil {
				fmt.Println("!", err)
			}
		case <-stop:
			c.Shutdown()
		}
	}
}

func runServer(logger *zap.Logger, port uint16, tick time.Duration) {
	srv := server.New(server.Options{Logger: logger})
	srv.Start(port)
	if srv.NetState() == core.StateInactive {
		entries, _ := srv.DrainLogs()
		printNew("", entries, new(int))
		return
	}
	fmt.Println("listening on", srv.Addr())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	lines := readLines(os.Stdin)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	childSeen := make(map[string]int)
	for {
		select {
		case <-ticker.C:
			entries, prior := srv.DrainLogs()
			for _, e := range entries[prior:] {
				printEntry("", e)
			}
			drainChildren(srv, childSeen)
			for _, addr := range srv.PruneInactive() {
				delete(childSeen, addr)
			}
			if srv.NetState() == core.StateInactive {
				time.Sleep(tick)
				entries, prior := srv.DrainLogs()
				for _, e := range entries[prior:] {
					printEntry("", e)
				}
				return
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				srv.Shutdown()
				continue
			}
			if line == "/quit" {
				srv.Shutdown()
				continue
			}
			handleServerLine(srv, line)
		case <-stop:
			srv.Shutdown()
		}
	}
}

func handleServerLine(srv *server.Server, line string) {
	switch {
	case line == "":
	case line == "/list":
		for _, addr := range srv.Addresses() {
			fmt.Println(addr)
		}
	case strings.HasPrefix(line, "/send "):
		rest := strings.TrimPrefix(line, "/send ")
		addr, hexPart, found := strings.Cut(rest, " ")
		if !found {
			fmt.Println("! usage: /send <addr> <hex bytes>")
			return
		}
		payload, err := hexfmt.Decode(hexPart)
		if err != nil {
			fmt.Println("!", err)
			return
		}
		ok := srv.WithConnection(addr, func(c *conn.Connection) {
			if err := c.SendData(payload); err != nil {
				fmt.Println("!", err)
			}
		})
		if !ok {
			fmt.Println("! no such connection:", addr)
		}
	case strings.HasPrefix(line, "/kick "):
		addr := strings.TrimPrefix(line, "/kick ")
		if !srv.WithConnection(addr, func(c *conn.Connection) { c.Shutdown() }) {
			fmt.Println("! no such connection:", addr)
		}
	default:
		fmt.Println("! commands: /list, /send <addr> <hex>, /kick <addr>, /quit")
	}
}

// drainChildren prints the delta of every registered connection's own
// log, prefixed with the peer address.
func drainChildren(srv *server.Server, seen map[string]int) {
	for _, addr := range srv.Addresses() {
		var entries []core.LogEntry
		srv.WithConnection(addr, func(c *conn.Connection) {
			entries = c.DrainLogs()
		})
		n := seen[addr]
		printNew(" ["+addr+"]", entries, &n)
		seen[addr] = n
	}
}

func printNew(prefix string, entries []core.LogEntry, seen *int) {
	for _, e := range entries[*seen:] {
		printEntry(prefix, e)
	}
	*seen = len(entries)
}

func printEntry(prefix string, e core.LogEntry) {
	ts := e.Time.Format("15:04:05.000")
	switch e.Kind {
	case core.KindReceivedPacket, core.KindSentPacket:
		fmt.Printf("[%s]%s %s: %s\n", ts, prefix, e, hexfmt.Encode(e.Packet.Payload))
	default:
		fmt.Printf("[%s]%s %s\n", ts, prefix, e)
	}
}

func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- strings.TrimSpace(sc.Text())
		}
	}()
	return ch
}
