package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/betamos/continuity"
)

var (
	configPath = flag.String("config", "", "Path to a YAML or JSON config file.")
	repeat     = flag.Int("repeat", 0, "Announce again every n seconds. 0 means announce once and exit.")
	verbose    = flag.Bool("v", false, "Verbose mode, with debug output.")
)

func main() {
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalln("failed loading config:", err)
	}

	var level = new(slog.LevelVar)
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalln("invalid log level:", err)
	}
	if *verbose {
		level.Set(slog.LevelDebug)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := serviceFromConfig(cfg)
	if err != nil {
		log.Fatalln("invalid service:", err)
	}

	mac, err := primaryMAC(ctx, cfg)
	if err != nil {
		log.Fatalln("failed determining primary mac:", err)
	}
	owner, err := continuity.NewOwnerOption(cfg.Sequence, mac)
	if err != nil {
		log.Fatalln("invalid owner option:", err)
	}

	client, err := continuity.New().
		Logger(slog.Default()).
		Network(cfg.Network).
		Open()
	if err != nil {
		log.Fatalln("failed creating client:", err)
	}
	defer client.Close()

	build := func(iface *continuity.Interface) (*continuity.Outgoing, error) {
		addrs := append(iface.V4(), iface.V6()...)
		return announcement(svc, owner, addrs, time.Now())
	}

	slog.Info("announcing", "service", svc, "target", svc.target(), "owner", owner)

	// The "empty ticker" blocks forever
	ticker := new(time.Ticker)
	if *repeat > 0 {
		ticker = time.NewTicker(time.Duration(*repeat) * time.Second)
		defer ticker.Stop()
	}
	for {
		if err := client.Announce(ctx, build); err != nil && ctx.Err() == nil {
			log.Fatalln("failed announcing:", err)
		}
		if *repeat == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func serviceFromConfig(cfg *AppConfig) (*Service, error) {
	osHostname, _ := os.Hostname()
	osHostname, _, _ = strings.Cut(osHostname, ".")

	svc := &Service{
		Type:     NewType(cfg.Service),
		Name:     cfg.Name,
		Port:     uint16(cfg.Port),
		Hostname: cfg.Hostname,
		TTL:      cfg.TTL,
		HostTTL:  cfg.HostTTL,
	}
	if svc.Name == "" {
		svc.Name = osHostname
	}
	if svc.Hostname == "" {
		svc.Hostname = osHostname + "." + svc.Type.Domain
	}

	var err error
	if svc.Text, err = continuity.NewDNSString(cfg.Text...); err != nil {
		return nil, err
	}
	if svc.Rapport, err = continuity.NewDNSString(cfg.Rapport...); err != nil {
		return nil, err
	}
	return svc, svc.Validate()
}

func primaryMAC(ctx context.Context, cfg *AppConfig) (net.HardwareAddr, error) {
	if cfg.MAC != "" {
		return net.ParseMAC(cfg.MAC)
	}
	primary, err := continuity.PrimaryInterface(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("primary interface", "iface", primary)
	return primary.MAC, nil
}
