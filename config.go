package addrcache

import (
	"io"
	"time"

	"github.com/skipor/addrcache/log"
)

// Config is parsed and validated server configuration.
type Config struct {
	Addr           string
	LogDestination io.Writer
	LogLevel       log.Level
	TTL            time.Duration
	SweepInterval  time.Duration
}
