// Package dms ties the content tree, SOAP control services, SSDP
// advertiser and HTTP file server into a single running media server,
// generalizing the teacher's top-level Server type
// (dlna/dms/dms.go) to yada's semantics: a fixed Music/Photo/Video tree,
// no transcoding, a single bound interface, and the endpoint URLs
// spec.md §6 names.
package dms

import (
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"os/user"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/log"

	"github.com/stefanop/yada/cds"
	"github.com/stefanop/yada/config"
	"github.com/stefanop/yada/probe"
	"github.com/stefanop/yada/ssdp"
	"github.com/stefanop/yada/upnp"
)

// serverVersion identifies this implementation's protocol revision in
// the SERVER header and device description, independent of any release
// versioning scheme.
const serverVersion = "1"

var serverField = fmt.Sprintf("Linux UPnP/1.0 %s/%s", userAgentProduct, serverVersion)

const (
	userAgentProduct = "YADA"
	rootDeviceType   = "urn:schemas-upnp-org:device:MediaServer:1"
)

// Fixed endpoint paths, per spec.md §6's "Endpoint URLs" table. The
// root-alias the table reserves is the empty string: the device
// description is served directly at "/yada.xml".
const (
	rootDescPath   = "/yada.xml"
	cdsSCPDPath    = "/cds.xml"
	cmsSCPDPath    = "/cms.xml"
	mrrSCPDPath    = "/mrr.xml"
	cdsControlPath = "/cds/control/ContentDirectory1"
	cdsEventPath   = "/cds/event/ContentDirectory1"
	cmsControlPath = "/cms/control/ConnectionManager1"
	cmsEventPath   = "/cms/event/ConnectionManager1"
	mrrControlPath = "/mrr/control/X_MS_MediaReceiverRegistrar1"
	deviceIconPath = "/deviceIcon"
	thumbnailPath  = "/icon"
)

// ShareIngestError reports that walking DocRootPath during Init failed,
// distinguishing a share-ingest failure from other Init failures (bind
// errors, device-description construction) for cmd/yada's exit-code
// mapping.
type ShareIngestError struct {
	Path string
	Err  error
}

func (e *ShareIngestError) Error() string {
	return fmt.Sprintf("dms: ingesting %q: %s", e.Path, e.Err)
}

func (e *ShareIngestError) Unwrap() error { return e.Err }

// Icon describes one entry of the device description's IconList, and the
// bytes served at deviceIconPath for it.
type Icon struct {
	Width, Height, Depth int
	Mimetype             string
	Bytes                []byte
}

// UPnPService is the SOAP control interface a ContentDirectory,
// ConnectionManager or MediaReceiverRegistrar implementation exposes,
// matching the teacher's UPnPService contract.
type UPnPService interface {
	Handle(action string, argsXML []byte, r *http.Request) (respArgs [][2]string, err error)
	Subscribe(callback []*url.URL, timeoutSeconds int) (sid string, actualTimeout int, err error)
	Unsubscribe(sid string) error
}

// Server is a single running yada instance: one bound HTTP listener, one
// SSDP advertiser, and the content tree they both serve.
type Server struct {
	// HTTPConn is the TCP listener accepting control and media
	// connections. If nil, Init binds one on an ephemeral port.
	HTTPConn net.Listener
	// FriendlyName is the device description's friendlyName and the
	// config package's "announce_as" value. Defaults to a generated
	// "YADA: user on host" string.
	FriendlyName string
	// Interface is the network interface SSDP binds to. If its zero
	// value, Init picks the first multicast-capable up interface.
	Interface net.Interface
	// DocRootPath is the directory ingested into the content tree and
	// served at "/". Defaults to the current working directory.
	DocRootPath string
	// UUID is the device's root UUID without the "uuid:" prefix. If
	// empty, Init derives one deterministically from FriendlyName.
	UUID string
	// Prober supplies media metadata for files found under DocRootPath.
	Prober probe.Prober
	// AllowedIPNets, when EnforceAllowedIPs is set, is the only set of
	// peers permitted to reach SOAP control and SSDP M-SEARCH.
	AllowedIPNets     []*net.IPNet
	EnforceAllowedIPs bool
	// IgnoreHidden skips dotfiles and dot-directories during share ingest.
	IgnoreHidden bool
	// IgnoreUnreadable skips files/directories this process can't open.
	IgnoreUnreadable bool
	// IgnorePaths lists path components to skip entirely, e.g. "lost+found".
	IgnorePaths []string
	// EnableVendorIndex gates the X_GetObjectIDfromIndex vendor action.
	EnableVendorIndex bool
	// NotifyInterval, if non-zero, overrides SSDP's randomized
	// advertisement interval.
	NotifyInterval time.Duration
	Icons          []Icon
	Logger         log.Logger

	httpServeMux   *http.ServeMux
	rootDescXML    []byte
	rootDeviceUUID string
	tree           *cds.Tree
	services       map[string]UPnPService
	closed         chan struct{}
	ssdpServer     *ssdp.Server
	ssdpStopped    chan struct{}
	wg             sync.WaitGroup
}

func (srv *Server) httpPort() int {
	return srv.HTTPConn.Addr().(*net.TCPAddr).Port
}

func getDefaultFriendlyName() string {
	u, err := user.Current()
	userName := "unknown"
	if err == nil {
		userName = u.Username
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s: %s on %s", userAgentProduct, userName, host)
}

// Init prepares the server: resolves defaults, ingests DocRootPath into
// the content tree, builds the SOAP services and device description, and
// constructs the HTTP mux. It does not yet accept connections or
// advertise — call Run for that.
func (srv *Server) Init() error {
	srv.closed = make(chan struct{})
	srv.ssdpStopped = make(chan struct{})

	if srv.FriendlyName == "" {
		srv.FriendlyName = getDefaultFriendlyName()
	}
	if srv.DocRootPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("dms: resolving default doc root: %w", err)
		}
		srv.DocRootPath = wd
	}
	if srv.HTTPConn == nil {
		l, err := net.Listen("tcp", "")
		if err != nil {
			return fmt.Errorf("dms: binding HTTP listener: %w", err)
		}
		srv.HTTPConn = l
	}
	if (srv.Interface.Flags & (net.FlagUp | net.FlagMulticast)) == 0 {
		if_, err := firstSSDPInterface()
		if err != nil {
			return fmt.Errorf("dms: selecting SSDP interface: %w", err)
		}
		srv.Interface = if_
	}
	if srv.Prober == nil {
		srv.Prober = probe.NewFFProber()
	}
	if srv.UUID == "" {
		srv.UUID = rootDeviceUUIDFor(srv.FriendlyName)
	}
	srv.rootDeviceUUID = srv.UUID

	srv.tree = cds.NewTree()
	if err := srv.shareIngest(); err != nil {
		return &ShareIngestError{Path: srv.DocRootPath, Err: err}
	}

	srv.initServices()
	if err := srv.buildRootDescXML(); err != nil {
		return err
	}
	srv.httpServeMux = http.NewServeMux()
	srv.initMux(srv.httpServeMux)
	return nil
}

// firstSSDPInterface picks the first up, multicast-capable network
// interface, matching the teacher's interface auto-selection.
func firstSSDPInterface() (net.Interface, error) {
	ifs, err := net.Interfaces()
	if err != nil {
		return net.Interface{}, err
	}
	const flags = net.FlagUp | net.FlagMulticast
	for _, if_ := range ifs {
		if if_.Flags&flags == flags && if_.MTU > 0 {
			return if_, nil
		}
	}
	return net.Interface{}, fmt.Errorf("dms: no multicast-capable interface found")
}

func (srv *Server) initServices() {
	cmsProtocolInfo := []string{
		"http-get:*:audio/mpeg:*",
		"http-get:*:audio/mp4:*",
		"http-get:*:image/jpeg:*",
		"http-get:*:image/png:*",
		"http-get:*:video/mp4:*",
		"http-get:*:video/mpeg:*",
		"http-get:*:video/x-ms-wmv:*",
	}
	cdsService := &cds.Service{
		Tree:              srv.tree,
		Host:              func() string { return fmt.Sprintf("%s:%d", srv.primaryIP(), srv.httpPort()) },
		EnableVendorIndex: srv.EnableVendorIndex,
	}
	cmsService := &cds.ConnectionManagerService{SourceProtocolInfo: cmsProtocolInfo}
	mrrService := &cds.MediaReceiverRegistrarService{}
	srv.services = map[string]UPnPService{
		"ContentDirectory":           cdsService,
		"ConnectionManager":          cmsService,
		"X_MS_MediaReceiverRegistrar": mrrService,
	}
}

// primaryIP reports the IP address of Interface, used to build item
// resource URLs and the SSDP/device-description LOCATION.
func (srv *Server) primaryIP() string {
	addrs, err := srv.Interface.Addrs()
	if err != nil {
		return "localhost"
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
			return ip4.String()
		}
	}
	return "localhost"
}

func (srv *Server) location(ip net.IP) string {
	u := struct {
		scheme, host, path string
	}{"http", (&net.TCPAddr{IP: ip, Port: srv.httpPort()}).String(), rootDescPath}
	return u.scheme + "://" + u.host + u.path
}

func (srv *Server) buildRootDescXML() error {
	serviceList := []upnp.Service{
		{ServiceType: "urn:schemas-upnp-org:service:ContentDirectory:1", ServiceId: "urn:upnp-org:serviceId:ContentDirectory", SCPDURL: cdsSCPDPath, ControlURL: cdsControlPath, EventSubURL: cdsEventPath},
		{ServiceType: "urn:schemas-upnp-org:service:ConnectionManager:1", ServiceId: "urn:upnp-org:serviceId:ConnectionManager", SCPDURL: cmsSCPDPath, ControlURL: cmsControlPath, EventSubURL: cmsEventPath},
		{ServiceType: "urn:microsoft.com:service:X_MS_MediaReceiverRegistrar:1", ServiceId: "urn:microsoft.com:serviceId:X_MS_MediaReceiverRegistrar", SCPDURL: mrrSCPDPath, ControlURL: mrrControlPath},
	}
	var iconList []upnp.Icon
	for i, ic := range srv.Icons {
		iconList = append(iconList, upnp.Icon{
			Height: ic.Height, Width: ic.Width, Depth: ic.Depth, Mimetype: ic.Mimetype,
			URL: fmt.Sprintf("%s/%d", deviceIconPath, i),
		})
	}
	desc := upnp.DeviceDesc{
		Xmlns:       "urn:schemas-upnp-org:device-1-0",
		NSDLNA:      "urn:schemas-dlna-org:device-1-0",
		NSSEC:       "http://www.sec.co.kr/dlna",
		SpecVersion: upnp.SpecVersion{Major: 1, Minor: 0},
		Device: upnp.Device{
			DeviceType:   rootDeviceType,
			FriendlyName: srv.FriendlyName,
			Manufacturer: "Stefano Passiglia",
			ModelName:    fmt.Sprintf("%s %s", userAgentProduct, serverVersion),
			UDN:          "uuid:" + srv.rootDeviceUUID,
			VendorXML: `
     <dlna:X_DLNACAP/>
     <dlna:X_DLNADOC>DMS-1.50</dlna:X_DLNADOC>
     <dlna:X_DLNADOC>M-DMS-1.50</dlna:X_DLNADOC>`,
			ServiceList:     serviceList,
			IconList:        iconList,
			PresentationURL: "/",
		},
	}
	data, err := xml.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("dms: marshaling device description: %w", err)
	}
	srv.rootDescXML = append([]byte(xml.Header), data...)
	return nil
}

func (srv *Server) initMux(mux *http.ServeMux) {
	mux.HandleFunc(rootDescPath, srv.serveRootDesc)
	mux.HandleFunc(cdsSCPDPath, serveSCPD(cds.SCPD))
	mux.HandleFunc(cmsSCPDPath, serveSCPD(cds.ConnectionManagerSCPD))
	mux.HandleFunc(mrrSCPDPath, serveSCPD(cds.MediaReceiverRegistrarSCPD))
	mux.HandleFunc(cdsControlPath, srv.serviceControlHandler)
	mux.HandleFunc(cmsControlPath, srv.serviceControlHandler)
	mux.HandleFunc(mrrControlPath, srv.serviceControlHandler)
	mux.HandleFunc(cdsEventPath, notImplementedEventHandler)
	mux.HandleFunc(cmsEventPath, notImplementedEventHandler)
	mux.HandleFunc(thumbnailPath, srv.serveThumbnail)
	mux.HandleFunc("/debug/pprof/", func(w http.ResponseWriter, r *http.Request) {
		if !srv.peerAllowed(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		pprof.Index(w, r)
	})
	for i := range srv.Icons {
		icon := srv.Icons[i]
		mux.HandleFunc(fmt.Sprintf("%s/%d", deviceIconPath, i), func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", icon.Mimetype)
			w.Header().Set("Content-Length", fmt.Sprint(len(icon.Bytes)))
			w.WriteHeader(http.StatusOK)
			if r.Method != http.MethodHead {
				w.Write(icon.Bytes)
			}
		})
	}
	mux.HandleFunc("/", srv.rootHandler)
}

func (srv *Server) serveRootDesc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.Header().Set("Content-Length", fmt.Sprint(len(srv.rootDescXML)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(srv.rootDescXML)
	}
}

func serveSCPD(doc string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		w.Header().Set("Content-Length", fmt.Sprint(len(doc)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.WriteString(w, doc)
		}
	}
}

// notImplementedEventHandler backs both event subscription URLs: GENA
// eventing isn't implemented, and spec.md §6 accepts 501 here.
func notImplementedEventHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "eventing not implemented", http.StatusNotImplemented)
}

// Run starts the SSDP advertiser and serves HTTP until Close is called.
func (srv *Server) Run() error {
	srv.ssdpServer = &ssdp.Server{
		Interface:      srv.Interface,
		Location:       srv.location,
		Server:         serverField,
		UUID:           srv.rootDeviceUUID,
		NotifyInterval: srv.NotifyInterval,
		Logger:         srv.Logger.WithNames("ssdp"),
	}
	if srv.EnforceAllowedIPs {
		srv.ssdpServer.PeerAllowed = srv.ipAllowed
	}
	if err := srv.ssdpServer.Init(); err != nil {
		return fmt.Errorf("dms: initializing SSDP: %w", err)
	}
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		defer close(srv.ssdpStopped)
		if err := srv.ssdpServer.Serve(); err != nil {
			select {
			case <-srv.closed:
			default:
				srv.Logger.Printf("ssdp: %s", err)
			}
		}
	}()
	return srv.serveHTTP()
}

func (srv *Server) serveHTTP() error {
	httpSrv := &http.Server{Handler: http.HandlerFunc(srv.serveHTTPWithHeaders)}
	httpSrv.SetKeepAlivesEnabled(false)
	err := httpSrv.Serve(srv.HTTPConn)
	select {
	case <-srv.closed:
		return nil
	default:
		return err
	}
}

// serveHTTPWithHeaders sets the headers spec.md §4.4 requires on every
// response before dispatching into the mux: Server, EXT, Connection:
// close (since this server never keeps a connection open for a second
// request), and Date in RFC 1123 GMT form.
func (srv *Server) serveHTTPWithHeaders(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Server", serverField)
	h.Set("Ext", "")
	h.Set("Connection", "close")
	h.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	srv.httpServeMux.ServeHTTP(w, r)
}

// Close closes the HTTP listener and stops SSDP, waiting for the SSDP
// goroutine to finish; it does not wait for Run's HTTP serve loop to return.
func (srv *Server) Close() error {
	close(srv.closed)
	err := srv.HTTPConn.Close()
	if srv.ssdpServer != nil {
		srv.ssdpServer.Close()
	}
	<-srv.ssdpStopped
	return err
}

func (srv *Server) ipAllowed(ip net.IP) bool {
	for _, n := range srv.AllowedIPNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (srv *Server) peerAllowed(r *http.Request) bool {
	if !srv.EnforceAllowedIPs {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if idx := strings.IndexByte(host, '%'); idx != -1 {
		host = host[:idx]
	}
	return srv.ipAllowed(net.ParseIP(host))
}

// rootDeviceUUIDFor derives a stable UUID from name the way the
// teacher's makeDeviceUuid does, for servers run without a persisted
// config.UUID.
func rootDeviceUUIDFor(name string) string {
	return config.DeterministicUUID(name)
}
