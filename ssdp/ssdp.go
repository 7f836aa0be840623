// Package ssdp implements the UPnP Simple Service Discovery Protocol:
// periodic ssdp:alive advertisements, a startup/shutdown ssdp:byebye
// burst, and M-SEARCH response, on a single IPv4 interface. Grounded on
// original_source/src/micro-upnp/upnp-core.c's upnp_send_alive,
// upnp_send_byebye, upnp_get_msearch_type, upnp_send_msearch_reply, and
// upnp_alive_thread_proc.
package ssdp

import (
	"bufio"
	"bytes"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/anacrolix/log"
)

// AddrString is the SSDP multicast group and port every message in this
// package is sent to or received on.
const AddrString = "239.255.255.250:1900"

// maxAge is the CACHE-CONTROL max-age advertised with every NOTIFY and
// M-SEARCH reply, per DLNA requirement 7.2.4.6.
const maxAge = 1800 * time.Second

// Notification types advertised by this server. Embedded devices and
// additional device types are out of scope, so exactly these four
// values appear across the device's NT/ST space.
const (
	RootDeviceNT        = "upnp:rootdevice"
	MediaServerNT       = "urn:schemas-upnp-org:device:MediaServer:1"
	ContentDirectoryNT  = "urn:schemas-upnp-org:service:ContentDirectory:1"
	ConnectionManagerNT = "urn:schemas-upnp-org:service:ConnectionManager:1"
	allST               = "ssdp:all"
)

// Server runs the SSDP advertiser and listener for one network
// interface. One ssdp:alive burst advertises the root device, its bare
// UUID, its device type, and its two service types — the 3+2d+k scheme
// with d=0 embedded devices and k=2 services.
type Server struct {
	// Interface is the network interface the multicast socket joins and
	// sends from.
	Interface net.Interface
	// Location returns the device description URL to advertise for a
	// given local IP (typically Interface's own address).
	Location func(ip net.IP) string
	// Server is the SSDP SERVER header value, e.g.
	// "Linux/5.4 UPnP/1.0 YADA-UPNP/1.0".
	Server string
	// UUID is the device's root UUID, without the "uuid:" prefix.
	UUID string
	// NotifyInterval, if non-zero, overrides the randomized [10s,
	// max_age/2] advertisement refresh interval with a fixed one.
	NotifyInterval time.Duration
	Logger         log.Logger
	// PeerAllowed, if non-nil, gates M-SEARCH replies to the allowed_ips
	// enforcement policy: a peer for which it returns false is never
	// replied to.
	PeerAllowed func(net.IP) bool

	conn    *net.UDPConn
	pconn   *ipv4.PacketConn
	ifaceIP net.IP

	sendMu sync.Mutex
	closed chan struct{}
	wg     sync.WaitGroup
}

// Init creates and configures the multicast socket: joins the SSDP
// group on Interface, and sets the outgoing multicast interface and TTL
// per upnp_new_ssdp_server_socket/upnp_new_ssdp_client_socket.
func (s *Server) Init() error {
	groupAddr, err := net.ResolveUDPAddr("udp4", AddrString)
	if err != nil {
		return err
	}
	ip, err := interfaceIPv4(s.Interface)
	if err != nil {
		return err
	}
	s.ifaceIP = ip

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: groupAddr.Port})
	if err != nil {
		return err
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(&s.Interface, &net.UDPAddr{IP: groupAddr.IP}); err != nil {
		conn.Close()
		return fmt.Errorf("ssdp: joining multicast group: %w", err)
	}
	if err := p.SetMulticastInterface(&s.Interface); err != nil {
		conn.Close()
		return fmt.Errorf("ssdp: setting multicast interface: %w", err)
	}
	if err := p.SetMulticastTTL(2); err != nil {
		conn.Close()
		return fmt.Errorf("ssdp: setting multicast ttl: %w", err)
	}

	s.conn = conn
	s.pconn = p
	s.closed = make(chan struct{})
	return nil
}

// interfaceIPv4 returns the first IPv4 address bound to iface.
func interfaceIPv4(iface net.Interface) (net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, fmt.Errorf("ssdp: no IPv4 address on interface %q", iface.Name)
}

// Serve sends the startup ssdp:byebye burst, then runs the advertiser
// and the M-SEARCH listener until Close is called.
func (s *Server) Serve() error {
	// DLNA Requirement 7.2.4.9: byebye before the first alive burst.
	s.logf("sending startup byebye burst")
	s.sendByebye()

	s.wg.Add(1)
	go s.advertiseLoop()

	buf := make([]byte, 2048)
	for {
		n, _, peer, err := s.pconn.ReadFrom(buf)
		select {
		case <-s.closed:
			return nil
		default:
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return err
		}
		udpPeer, ok := peer.(*net.UDPAddr)
		if !ok {
			continue
		}
		s.handleDatagram(buf[:n], udpPeer)
	}
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	te, ok := err.(timeout)
	return ok && te.Timeout()
}

// Close stops the advertiser, sends the shutdown ssdp:byebye burst, and
// closes the socket, matching the ordering spec.md §5 requires: stop
// advertiser, stop listener, send final byebye, close sockets.
func (s *Server) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	close(s.closed)
	s.wg.Wait()
	s.logf("sending shutdown byebye burst")
	s.sendByebye()
	return s.conn.Close()
}

func (s *Server) logf(format string, a ...interface{}) {
	s.Logger.Levelf(log.Debug, format, a...)
}

// advertiseLoop sleeps a randomized interval in [10s, max_age/2] and
// then emits one alive burst (two back-to-back copies of the 5-message
// set), forever, until closed — upnp_alive_thread_proc.
func (s *Server) advertiseLoop() {
	defer s.wg.Done()
	for {
		interval := s.NotifyInterval
		if interval == 0 {
			interval = randomNotifyInterval()
		}
		select {
		case <-s.closed:
			return
		case <-time.After(interval):
		}
		s.sendAlive()
	}
}

func randomNotifyInterval() time.Duration {
	lo := 10.0
	hi := float64(maxAge/time.Second) / 2
	secs := lo + rand.Float64()*(hi-lo)
	return time.Duration(secs * float64(time.Second))
}

// sendAlive emits the 3+2d+k = 5 message set (rootdevice, bare uuid,
// device type, ContentDirectory, ConnectionManager) twice in sequence.
func (s *Server) sendAlive() {
	for i := 0; i < 2; i++ {
		s.sendAliveRootDevice()
		s.sendAliveBareUUID()
		s.sendAliveNT(MediaServerNT)
		s.sendAliveNT(ContentDirectoryNT)
		s.sendAliveNT(ConnectionManagerNT)
	}
}

func (s *Server) location() string {
	return s.Location(s.ifaceIP)
}

func (s *Server) sendAliveRootDevice() {
	s.send(buildAliveMessage(RootDeviceNT, "uuid:"+s.UUID+"::"+RootDeviceNT, s.location(), s.Server))
}

func (s *Server) sendAliveBareUUID() {
	s.send(buildAliveMessage("uuid:"+s.UUID, "uuid:"+s.UUID, s.location(), s.Server))
}

func (s *Server) sendAliveNT(nt string) {
	s.send(buildAliveMessage(nt, "uuid:"+s.UUID+"::"+nt, s.location(), s.Server))
}

// buildAliveMessage renders one NOTIFY ssdp:alive message. nt is the NT
// header's value and usn the full USN header's value, since the
// bare-uuid variant's NT and USN diverge from the "uuid:ID::NT" pattern
// every other NT uses.
func buildAliveMessage(nt, usn, location, server string) string {
	return fmt.Sprintf(
		"NOTIFY * HTTP/1.1\r\n"+
			"HOST: %s\r\n"+
			"CACHE-CONTROL: max-age=%d\r\n"+
			"LOCATION: %s\r\n"+
			"NT: %s\r\n"+
			"NTS: ssdp:alive\r\n"+
			"USN: %s\r\n"+
			"SERVER: %s\r\n"+
			"CONTENT-LENGTH: 0\r\n\r\n",
		AddrString, int(maxAge/time.Second), location, nt, usn, server)
}

// buildByebyeMessage renders one NOTIFY ssdp:byebye message.
func buildByebyeMessage(nt, uuid string) string {
	return fmt.Sprintf(
		"NOTIFY * HTTP/1.1\r\n"+
			"HOST: %s\r\n"+
			"NT: %s\r\n"+
			"NTS: ssdp:byebye\r\n"+
			"USN: uuid:%s::%s\r\n"+
			"CONTENT-LENGTH: 0\r\n\r\n",
		AddrString, nt, uuid, nt)
}

// sendByebye emits the four core NTs (rootdevice, device type, the two
// services) — no bare-uuid message, matching upnp_send_byebye.
func (s *Server) sendByebye() {
	for _, nt := range []string{RootDeviceNT, MediaServerNT, ConnectionManagerNT, ContentDirectoryNT} {
		s.send(buildByebyeMessage(nt, s.UUID))
	}
}

// send writes msg to the multicast group, serialized against every
// other sender on this Server (the advertiser and the listener's
// M-SEARCH replies share one send path, per spec.md §5).
func (s *Server) send(msg string) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	dst, err := net.ResolveUDPAddr("udp4", AddrString)
	if err != nil {
		return
	}
	if _, err := s.pconn.WriteTo([]byte(msg), nil, dst); err != nil {
		s.logf("ssdp: send error: %s", err)
	}
}

func (s *Server) sendTo(msg string, dst *net.UDPAddr) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if _, err := s.pconn.WriteTo([]byte(msg), nil, dst); err != nil {
		s.logf("ssdp: send error: %s", err)
	}
}

// handleDatagram dispatches a received UDP datagram: an M-SEARCH
// request gets a unicast reply, a NOTIFY is logged and ignored, and
// anything else is dropped — upnp_discover_thread_proc.
func (s *Server) handleDatagram(buf []byte, peer *net.UDPAddr) {
	line, _, _ := bufio.NewReader(bytes.NewReader(buf)).ReadLine()
	switch {
	case strings.HasPrefix(string(line), "M-SEARCH"):
		s.replyMSearch(buf, peer)
	case strings.HasPrefix(string(line), "NOTIFY"):
		s.logf("ssdp: NOTIFY from %s ignored", peer)
	}
}

// searchType extracts the ST header's value from an M-SEARCH message,
// mirroring upnp_get_msearch_type's strstr-based scan: MAN is required
// to be present, and ST must name a type this server recognizes.
func searchType(buf []byte) (string, bool) {
	s := string(buf)
	if !strings.Contains(s, "MAN") {
		return "", false
	}
	for _, line := range strings.Split(s, "\r\n") {
		if !strings.HasPrefix(strings.ToUpper(line), "ST:") {
			continue
		}
		st := strings.TrimSpace(line[len("ST:"):])
		switch st {
		case allST, RootDeviceNT, MediaServerNT, ContentDirectoryNT, ConnectionManagerNT:
			return st, true
		}
		return "", false
	}
	return "", false
}

// replyMSearch sends one unicast 200 response per ST selected by the
// request: ssdp:all expands to all four, a specific ST matches itself
// only — upnp_send_msearch_reply.
func (s *Server) replyMSearch(buf []byte, peer *net.UDPAddr) {
	if s.PeerAllowed != nil && !s.PeerAllowed(peer.IP) {
		return
	}
	st, ok := searchType(buf)
	if !ok {
		return
	}
	var targets []string
	if st == allST {
		targets = []string{RootDeviceNT, MediaServerNT, ContentDirectoryNT, ConnectionManagerNT}
	} else {
		targets = []string{st}
	}
	for _, nt := range targets {
		s.sendTo(buildMSearchReply(nt, s.UUID, s.location(), s.Server), peer)
	}
}

// buildMSearchReply renders one unicast M-SEARCH 200 OK response.
func buildMSearchReply(st, uuid, location, server string) string {
	return fmt.Sprintf(
		"HTTP/1.1 200 OK\r\n"+
			"CACHE-CONTROL: max-age=%d\r\n"+
			"EXT:\r\n"+
			"LOCATION: %s\r\n"+
			"ST: %s\r\n"+
			"USN: uuid:%s::%s\r\n"+
			"SERVER: %s\r\n"+
			"CONTENT-LENGTH: 0\r\n\r\n",
		int(maxAge/time.Second), location, st, uuid, st, server)
}
