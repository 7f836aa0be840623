// Command yada runs a DLNA MediaServer sharing a single directory,
// generalizing the teacher's cmd/dms entry point to yada's configuration
// document and exit-code contract (spec.md §6).
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/anacrolix/log"

	"github.com/stefanop/yada/config"
	"github.com/stefanop/yada/dms"
)

// Exit codes per spec.md §6.
const (
	exitOK            = 0
	exitInitError     = -1
	exitInvalidConfig = -2
	exitResourceError = -3
	exitShareError    = -4
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "yada.xml", "path to the yada configuration document")
	ipAddress := flag.String("ip", "", "interface IP address to bind (overrides the config file)")
	port := flag.Int("port", -1, "HTTP port to bind, 0 for ephemeral (overrides the config file)")
	docRoot := flag.String("root", "", "directory to share (overrides the config file)")
	friendlyName := flag.String("friendly-name", "", "device friendly name (overrides the config file)")
	flag.Parse()

	settings, err := loadOrCreateSettings(*configPath)
	if err != nil {
		log.Printf("yada: %s", err)
		return exitInvalidConfig
	}
	if *ipAddress != "" {
		settings.HTTPD.IPAddress = *ipAddress
	}
	if *port >= 0 {
		settings.HTTPD.Port = *port
	}
	if *docRoot != "" {
		settings.HTTPD.DocRootPath = *docRoot
	}
	if *friendlyName != "" {
		settings.AnnounceAs = *friendlyName
	}

	allowedIPNets, err := parseAllowedIPNets(settings.UPnP.AllowedIPs.IPs)
	if err != nil {
		log.Printf("yada: %s", err)
		return exitInvalidConfig
	}

	srv := &dms.Server{
		FriendlyName:      settings.AnnounceAs,
		DocRootPath:       settings.HTTPD.DocRootPath,
		UUID:              settings.UUID,
		AllowedIPNets:     allowedIPNets,
		EnforceAllowedIPs: settings.UPnP.AllowedIPs.Enforced(),
		IgnoreHidden:      true,
		IgnoreUnreadable:  true,
		EnableVendorIndex: settings.UPnP.VendorIndexEnabled(),
		Logger:            log.Default,
	}
	if settings.HTTPD.IPAddress != "" {
		iface, err := interfaceForAddress(settings.HTTPD.IPAddress)
		if err != nil {
			log.Printf("yada: %s", err)
			return exitInvalidConfig
		}
		srv.Interface = iface
	}
	if settings.HTTPD.Port != 0 {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", settings.HTTPD.Port))
		if err != nil {
			log.Printf("yada: binding port %d: %s", settings.HTTPD.Port, err)
			return exitInitError
		}
		srv.HTTPConn = l
	}

	if err := srv.Init(); err != nil {
		var shareErr *dms.ShareIngestError
		if errors.As(err, &shareErr) {
			log.Printf("yada: %s", err)
			return exitShareError
		}
		log.Printf("yada: %s", err)
		return exitResourceError
	}

	ctx := make(chan os.Signal, 1)
	signal.Notify(ctx, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx
		log.Print("yada: shutting down")
		srv.Close()
	}()

	if err := srv.Run(); err != nil {
		log.Printf("yada: %s", err)
		return exitInitError
	}
	return exitOK
}

// loadOrCreateSettings mirrors config_load's self-repair behavior: a
// missing configuration document is created with defaults rather than
// treated as an error.
func loadOrCreateSettings(path string) (*config.Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.CreateDefaults(path)
	}
	return config.Load(path)
}

// parseAllowedIPNets accepts either a bare IP (matched exactly, as a /32
// or /128) or a CIDR block for each allowed_ips/ip entry.
func parseAllowedIPNets(ips []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(ips))
	for _, s := range ips {
		if _, n, err := net.ParseCIDR(s); err == nil {
			nets = append(nets, n)
			continue
		}
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("yada: invalid allowed_ips entry %q", s)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, nil
}

// interfaceForAddress resolves the network interface carrying ipAddress,
// since dms.Server binds SSDP to a single net.Interface rather than an IP.
func interfaceForAddress(ipAddress string) (net.Interface, error) {
	target := net.ParseIP(ipAddress)
	if target == nil {
		return net.Interface{}, fmt.Errorf("invalid ip_address %q", ipAddress)
	}
	ifs, err := net.Interfaces()
	if err != nil {
		return net.Interface{}, err
	}
	for _, iface := range ifs {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip.Equal(target) {
				return iface, nil
			}
		}
	}
	return net.Interface{}, fmt.Errorf("no interface carries ip_address %q", ipAddress)
}
