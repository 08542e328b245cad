/*
File Name:  PingTransport.go

Ping transport: a tiny TCP echo server/client used only for latency
probes to break rank ties in the block scheduler. The value exchanged
carries no meaning; only the round trip does.
*/

package core

import (
	"net"
	"strconv"
	"time"

	"github.com/netdrop/node/protocol"
)

// pingReadDeadline bounds how long the client waits for the echo.
const pingReadDeadline = 5 * time.Second

// ServePing accepts connections on host:PingPort forever, echoing one byte
// per connection. Call in its own goroutine; it returns only on listener
// error (including the listener being closed at shutdown).
func ServePing(host string, logError func(function, format string, v ...interface{})) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(PingPort)))
	if err != nil {
		return err
	}
	defer listener.Close()

	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}

		go func() {
			defer conn.Close()

			probe := make([]byte, 1)
			if _, err := conn.Read(probe); err != nil {
				logError("ServePing", "reading probe from %s: %v", conn.RemoteAddr(), err)
				return
			}
			if _, err := conn.Write(probe); err != nil {
				logError("ServePing", "echoing probe to %s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

// Ping measures the round-trip latency to peerIP:PingPort. A connect
// failure, write failure, read failure, or deadline expiry all result in
// ok=false: latency is "unknown" and sorts after every finite latency.
func Ping(peerIP string) (latency time.Duration, ok bool) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(peerIP, strconv.Itoa(PingPort)), pingReadDeadline)
	if err != nil {
		return 0, false
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(pingReadDeadline)); err != nil {
		return 0, false
	}

	start := time.Now()
	if _, err := conn.Write([]byte{protocol.PingProbeByte}); err != nil {
		return 0, false
	}

	reply := make([]byte, 1)
	if _, err := conn.Read(reply); err != nil {
		return 0, false
	}

	return time.Since(start), true
}
