// Command palm is a line-driven driver for the TCP test harness.
//
// Usage:
//
//	palm -mode client -addr 127.0.0.1:9000
//	palm -mode server -port 9000
//
// Flags:
//
//	-mode     "client" or "server" (default client)
//	-addr     peer address in client mode, host:port
//	-port     listen port in server mode
//	-tick     log poll interval (default 250ms)
//	-verbose  enable debug logging
//
// Behavior:
//
// The driver polls net state and drains logs on every tick, printing
// entries as they arrive. Stdin lines are hex payloads ("DE AD BE EF",
// case and spacing forgiving) pushed through send. In server mode the
// commands /list, /send <addr> <hex>, /kick <addr> act on registered
// connections; /quit (or SIGINT/SIGTERM, or stdin EOF) triggers
// shutdown in either mode and the driver exits once the backend
// reports Inactive.
package main
