/*
File Name:  Transport.go

Datagram transport constants and the DatagramTransport type wrapping a
UDP socket joined to the discovery multicast group. Two roles share this
type: the Listener (bound to BASE_PORT, receives queries) and per-request
Handles (bound to an ephemeral port, send queries and receive unicast
replies).
*/

package core

import (
	"net"
	"strconv"

	"github.com/netdrop/node/reuseport"
	"golang.org/x/net/ipv4"
)

const (
	// MulticastGroup is the fixed IPv4 discovery group every node joins.
	MulticastGroup = "224.0.1.0"

	// BasePort is the announce/serve port. BasePort+1 is the ping port.
	BasePort = 8888

	// PingPort is the TCP echo port used for latency probes.
	PingPort = BasePort + 1

	// MaxDatagramSize is the largest raw datagram either end will send
	// or attempt to read.
	MaxDatagramSize = 1 << 20 // 1 MiB
)

// DatagramTransport is a UDP socket joined to the discovery multicast
// group, usable to send and receive datagrams.
type DatagramTransport struct {
	conn   net.PacketConn
	packet *ipv4.PacketConn
}

// bind opens a UDP socket on listen (host:port) with SO_REUSEADDR set and
// joins it to MulticastGroup on every available interface.
func bind(listen string) (*DatagramTransport, error) {
	conn, err := reuseport.ListenPacketReusable("udp4", listen)
	if err != nil {
		return nil, err
	}

	packetConn := ipv4.NewPacketConn(conn)

	group := net.ParseIP(MulticastGroup)
	ifaces, err := net.Interfaces()
	if err != nil {
		conn.Close()
		return nil, err
	}

	joined := false
	var joinErr error
	for i := range ifaces {
		iface := ifaces[i]
		if err := packetConn.JoinGroup(&iface, &net.UDPAddr{IP: group}); err == nil {
			joined = true
		} else {
			joinErr = err
		}
	}
	if !joined {
		conn.Close()
		if joinErr == nil {
			joinErr = &net.AddrError{Err: "no interface joined the multicast group", Addr: MulticastGroup}
		}
		return nil, joinErr
	}

	_ = packetConn.SetMulticastLoopback(true)

	return &DatagramTransport{conn: conn, packet: packetConn}, nil
}

// NewListener binds the well-known announce listener on host:BasePort.
func NewListener(host string) (*DatagramTransport, error) {
	return bind(net.JoinHostPort(host, strconv.Itoa(BasePort)))
}

// NewHandle binds a per-request transport on an ephemeral port.
func NewHandle(host string) (*DatagramTransport, error) {
	return bind(net.JoinHostPort(host, "0"))
}

// LocalAddr returns the transport's bound local address.
func (t *DatagramTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// SendMulticast writes raw to the discovery multicast group at BasePort.
func (t *DatagramTransport) SendMulticast(raw []byte) error {
	dst := &net.UDPAddr{IP: net.ParseIP(MulticastGroup), Port: BasePort}
	_, err := t.conn.WriteTo(raw, dst)
	return err
}

// SendTo writes raw to a specific unicast address.
func (t *DatagramTransport) SendTo(raw []byte, addr net.Addr) error {
	_, err := t.conn.WriteTo(raw, addr)
	return err
}

// Receive blocks for the next datagram, returning its payload and sender.
func (t *DatagramTransport) Receive() (raw []byte, sender net.Addr, err error) {
	buffer := make([]byte, MaxDatagramSize)
	n, sender, err := t.conn.ReadFrom(buffer)
	if err != nil {
		return nil, nil, err
	}
	return buffer[:n], sender, nil
}

// Close closes the underlying socket.
func (t *DatagramTransport) Close() error {
	return t.conn.Close()
}
