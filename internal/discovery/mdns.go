// ABOUTME: mDNS discovery of generator services on the local network
// ABOUTME: Browses for _driftwave-gen._tcp and surfaces endpoints on a channel
package discovery

import (
	"context"
	"fmt"
	stdlog "log"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/mdns"
)

const (
	generatorService = "_driftwave-gen._tcp"
	playerService    = "_driftwave-player._tcp"
)

// Config holds discovery configuration
type Config struct {
	// Interval between browse queries. Zero means the default of 5s.
	Interval time.Duration
}

// GeneratorInfo describes a discovered generator endpoint
type GeneratorInfo struct {
	Name string
	Host string
	Port int
}

// Addr returns the dialable host:port for the generator
func (g GeneratorInfo) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// Manager browses the local network for generators
type Manager struct {
	config     Config
	ctx        context.Context
	cancel     context.CancelFunc
	generators chan GeneratorInfo
	logger     *log.Logger
}

// NewManager creates a discovery manager
func NewManager(config Config, logger *log.Logger) *Manager {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:     config,
		ctx:        ctx,
		cancel:     cancel,
		generators: make(chan GeneratorInfo, 10),
		logger:     logger.WithPrefix("discovery"),
	}
}

// Advertise announces this player on the local network so generators
// and tooling can see it
func (m *Manager) Advertise(name string, port int) error {
	ips, err := localIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(name, playerService, "", "", port, ips, nil)
	if err != nil {
		return fmt.Errorf("failed to create mdns service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.logger.Info("advertising player", "name", name, "port", port)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse starts the background browse loop
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		m.queryOnce()

		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// queryOnce runs a single bounded mDNS query and forwards results
func (m *Manager) queryOnce() {
	entries := make(chan *mdns.ServiceEntry, 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			if entry.AddrV4 == nil {
				continue
			}

			info := GeneratorInfo{
				Name: entry.Name,
				Host: entry.AddrV4.String(),
				Port: entry.Port,
			}
			m.logger.Info("discovered generator", "name", info.Name, "addr", info.Addr())

			select {
			case m.generators <- info:
			case <-m.ctx.Done():
				return
			}
		}
	}()

	params := &mdns.QueryParam{
		Service: generatorService,
		Domain:  "local",
		Timeout: 3 * time.Second,
		Entries: entries,
		Logger:  stdlog.New(logWriter{m.logger}, "", 0),
	}

	if err := mdns.Query(params); err != nil {
		m.logger.Warn("mdns query failed", "err", err)
	}
	close(entries)
	<-done
}

// Generators returns the channel of discovered endpoints
func (m *Manager) Generators() <-chan GeneratorInfo {
	return m.generators
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// localIPs returns the non-loopback IPv4 addresses of up interfaces
func localIPs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}
	return ips, nil
}

// logWriter adapts hashicorp/mdns's stdlib logger to ours
type logWriter struct {
	logger *log.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Debug(string(p))
	return len(p), nil
}
