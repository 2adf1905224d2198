package config

import (
	"encoding/json"
	"io"
	"net"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"

	"github.com/skipor/addrcache"
	"github.com/skipor/addrcache/internal/util"
	"github.com/skipor/addrcache/log"
)

var (
	ErrNonPositiveTTL           = errors.New("ttl should be positive")
	ErrNonPositiveSweepInterval = errors.New("sweep interval should be positive")
	ErrInvalidPort              = errors.New("invalid port")
	ErrInvalidDuration          = errors.New("invalid duration")
)

func Parse(conf Config) (aconf addrcache.Config, err error) {
	aconf.LogDestination, err = logDestination(conf.LogDestination)
	if err != nil {
		err = stackerr.Newf("Log destination open error: %v", err)
		return
	}
	aconf.LogLevel, err = log.LevelFromString(conf.LogLevel)
	if err != nil {
		err = errors.Wrap(err, "log level parse error")
		return
	}
	aconf.TTL, err = parseDuration(conf.TTL)
	if err != nil {
		err = errors.Wrap(err, "ttl parse error")
		return
	}
	if aconf.TTL <= 0 {
		err = stackerr.Wrap(ErrNonPositiveTTL)
		return
	}
	aconf.SweepInterval, err = parseDuration(conf.SweepInterval)
	if err != nil {
		err = errors.Wrap(err, "sweep interval parse error")
		return
	}
	if aconf.SweepInterval <= 0 {
		err = stackerr.Wrap(ErrNonPositiveSweepInterval)
		return
	}
	if conf.Port < 0 || conf.Port > 1<<16-1 {
		err = stackerr.Wrap(ErrInvalidPort)
		return
	}
	aconf.Addr = net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port))
	return
}

func Default() *Config {
	return &Config{
		Port:           7311,
		Host:           "",
		LogDestination: "stderr",
		LogLevel:       "info",
		TTL:            "5s",
		SweepInterval:  "5s",
	}
}

type Config struct {
	Port           int    `json:"port,omitempty"`
	Host           string `json:"host,omitempty"`
	LogDestination string `json:"log-destination,omitempty"` // Stdout, stderr, or filepath.
	LogLevel       string `json:"log-level,omitempty"`
	// Duration values 500ms, 5s, 1m. Number without unit is seconds.
	TTL           string `json:"ttl,omitempty"`
	SweepInterval string `json:"sweep-interval,omitempty"`
}

// Merge overwrites def values with non zero override values.
func Merge(def, override *Config) {
	defVal := reflect.ValueOf(def).Elem()
	overrideVal := reflect.ValueOf(override).Elem()
	for i, end := 0, defVal.NumField(); i < end; i++ {
		overrideVal := overrideVal.Field(i)
		if !util.IsZeroVal(overrideVal) {
			defVal.Field(i).Set(overrideVal)
		}
	}
}

func Marshal(conf *Config) []byte {
	data, err := json.Marshal(conf)
	if err != nil {
		panic(err)
	}
	return data
}

// Unmarshal reads JSON config over conf values.
func Unmarshal(data []byte, conf *Config) error {
	return stackerr.Wrap(json.Unmarshal(data, conf))
}

func parseDuration(s string) (d time.Duration, err error) {
	if s == "" {
		err = stackerr.Wrap(ErrInvalidDuration)
		return
	}
	if seconds, convErr := strconv.ParseFloat(s, 64); convErr == nil {
		d = time.Duration(seconds * float64(time.Second))
		return
	}
	d, err = time.ParseDuration(s)
	if err != nil {
		err = errors.WithMessage(ErrInvalidDuration, err.Error())
	}
	return
}

func logDestination(dest string) (w io.Writer, err error) {
	switch strings.ToLower(dest) {
	case "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		w, err = os.OpenFile(dest, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	}
	return
}
