package main

import (
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/skipor/addrcache"
	"github.com/skipor/addrcache/cache"
	"github.com/skipor/addrcache/cmd/addrcache/config"
	"github.com/skipor/addrcache/internal/tag"
	"github.com/skipor/addrcache/log"
)

const usage = `
Config values merge rules:
1) config file value overrides default
2) command line value overrides any
Options:
`

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s", usage)
		flag.PrintDefaults()
	}
}

func main() {
	conf := parseConfig()
	l := log.NewLogger(conf.LogLevel, conf.LogDestination)
	l.Debugf("Config: %#v", conf)
	if tag.Debug {
		l.Warn("Using debug build. It has more runtime checks and large perfomance overhead.")
	}

	c, err := cache.New(l, cache.Config[netip.Addr]{
		TTL:           conf.TTL,
		SweepInterval: conf.SweepInterval,
		Validate:      validateAddr,
		OnExpire: func(a netip.Addr) {
			l.Debugf("Address %v expired.", a)
		},
	})
	if err != nil {
		l.Fatal("Cache create error: ", err)
	}
	s := addrcache.NewServer(l, conf, c, c.Metrics())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go handleSignals(l, s, sig)

	l.Infof("Serve on %s.", s.Addr)
	err = s.ListenAndServe()
	c.Stop()
	if err != nil {
		l.Fatal("Serve error: ", err)
	}
	l.Info("Server stopped.")
}

func validateAddr(a netip.Addr) error {
	if !a.IsValid() {
		return cache.ErrKeyRejected
	}
	return nil
}

func handleSignals(l log.Logger, s *addrcache.Server, sig <-chan os.Signal) {
	l.Infof("Got %v. Stopping.", <-sig)
	err := s.Close()
	if err != nil {
		l.Error("Server close error: ", err)
	}
}

// parseConfig parses command flags, reads config file if any, returns merged config.
// Fatal on any error.
func parseConfig() addrcache.Config {
	l := log.NewLogger(log.DebugLevel, os.Stderr)
	flg := parseFlags()
	fileConf := config.Default()
	if flg.ConfigPath != "" {
		data, err := os.ReadFile(flg.ConfigPath)
		if err != nil {
			l.Fatal("Config file read error: ", err)
		}
		err = config.Unmarshal(data, fileConf)
		if err != nil {
			l.Fatal("Config parse error: ", err)
		}
	}
	config.Merge(fileConf, &flg.Config)
	conf, err := config.Parse(*fileConf)
	if err != nil {
		l.Fatal("Invalid config: ", err)
	}
	return conf
}

type Flags struct {
	ConfigPath string
	config.Config
}

func parseFlags() Flags {
	var f Flags
	flag.StringVar(&f.ConfigPath, "config", "", "path to json config")

	def := config.Default()
	usage := func(usage string, defVal interface{}) string {
		if _, ok := defVal.(string); ok {
			usage += fmt.Sprintf(" (default %q)", defVal)
		} else {
			usage += fmt.Sprintf(" (default %v)", defVal)
		}
		return usage
	}
	flag.StringVar(&f.Host, "host", "", usage("host address to bind", def.Host))
	flag.IntVar(&f.Port, "port", 0, usage("port num", def.Port))
	flag.StringVar(&f.LogDestination, "log-destination", "", usage("log destination: stderr, stdout or file path", def.LogDestination))
	flag.StringVar(&f.LogLevel, "log-level", "", usage("log level: debug, info, warn, error, fatal", def.LogLevel))
	flag.StringVar(&f.TTL, "ttl", "", usage("address time to live: 500ms, 5s, 1m", def.TTL))
	flag.StringVar(&f.SweepInterval, "sweep-interval", "", usage("delay between expired addresses sweeps", def.SweepInterval))
	flag.Parse()
	return f
}
