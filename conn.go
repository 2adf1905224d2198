package addrcache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/netip"
	"sort"
	"strconv"
	"time"

	"github.com/facebookgo/stackerr"
	"github.com/rcrowley/go-metrics"

	"github.com/skipor/addrcache/internal/util"
	"github.com/skipor/addrcache/log"
)

type conn struct {
	reader
	*bufio.Writer
	rwc io.ReadWriteCloser
	*ConnMeta
	// ctx is done when server is closed. Blocked take is aborted then.
	ctx context.Context
	log log.Logger
}

func newConn(ctx context.Context, l log.Logger, m *ConnMeta, rwc io.ReadWriteCloser) *conn {
	return &conn{
		reader:   newReader(rwc),
		Writer:   bufio.NewWriterSize(rwc, OutBufferSize),
		rwc:      rwc,
		ConnMeta: m,
		ctx:      ctx,
		log:      l,
	}
}

func (c *conn) serve() {
	c.log.Debug("Serve connection.")
	defer func() {
		if r := recover(); r != nil {
			c.serverError(stackerr.Newf("Panic: %s", r))
			panic(r)
		}
		c.Close()
		c.log.Debug("Connection closed.")
	}()

	err := c.loop()
	if err != nil {
		c.serverError(err)
	}
}

func (c *conn) Close() error {
	c.Flush()
	return c.rwc.Close()
}

func (c *conn) loop() error {
	for {
		command, fields, clientErr, err := c.readCommand()
		if err != nil {
			if util.Unwrap(err) == io.EOF {
				// Just client disconnect. Ok.
				return nil
			}
			return err
		}
		if clientErr == nil {
			c.log.Debugf("Command: %s %s.", command, fields)
			switch string(command) { // No allocation.
			case OfferCommand:
				clientErr, err = c.offer(fields)
			case ContainsCommand:
				clientErr, err = c.contains(fields)
			case RemoveCommand:
				clientErr, err = c.remove(fields)
			case PeekCommand:
				clientErr, err = c.peek(fields)
			case TakeCommand:
				clientErr, err = c.take(fields)
			case SizeCommand:
				clientErr, err = c.size(fields)
			case CloseCommand:
				clientErr, err = c.close(fields)
			case ExpireCommand:
				clientErr, err = c.expire(fields)
			case StatsCommand:
				clientErr, err = c.stats(fields)
			case QuitCommand:
				return nil
			default:
				c.log.Errorf("Unexpected command: %s", command)
				err = c.sendResponse(ErrorResponse)
			}
		}
		if clientErr != nil && err == nil {
			err = c.sendClientError(clientErr)
		}
		if err != nil {
			return err
		}
	}
}

func (c *conn) offer(fields [][]byte) (clientErr, err error) {
	var addr netip.Addr
	addr, clientErr = c.parseAddrField(fields)
	if clientErr != nil {
		return
	}
	if !c.Cache.Offer(addr) {
		err = c.sendResponse(fmt.Sprintf("%s %s", ServerErrorResponse, ErrOfferRejected))
		return
	}
	err = c.sendResponse(StoredResponse)
	return
}

func (c *conn) contains(fields [][]byte) (clientErr, err error) {
	var addr netip.Addr
	addr, clientErr = c.parseAddrField(fields)
	if clientErr != nil {
		return
	}
	err = c.sendBool(c.Cache.Contains(addr), FoundResponse, NotFoundResponse)
	return
}

// remove without address pops top one.
func (c *conn) remove(fields [][]byte) (clientErr, err error) {
	clientErr = checkFields(fields, 0, 1)
	if clientErr != nil {
		return
	}
	if len(fields) == 0 {
		err = c.sendValue(c.Cache.Pop())
		return
	}
	var addr netip.Addr
	addr, clientErr = parseAddr(fields[0])
	if clientErr != nil {
		return
	}
	err = c.sendBool(c.Cache.Remove(addr), DeletedResponse, NotFoundResponse)
	return
}

func (c *conn) peek(fields [][]byte) (clientErr, err error) {
	clientErr = checkFields(fields, 0, 0)
	if clientErr != nil {
		return
	}
	err = c.sendValue(c.Cache.Peek())
	return
}

// take blocks until some address is offered, client disconnects or server closes.
func (c *conn) take(fields [][]byte) (clientErr, err error) {
	clientErr = checkFields(fields, 0, 0)
	if clientErr != nil {
		return
	}
	// Flush pending responses before possible long wait.
	err = c.Flush()
	if err != nil {
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	stopWatch := c.watchDisconnect(cancel)
	addr, takeErr := c.Cache.Take(ctx)
	stopWatch()
	if takeErr != nil {
		c.log.Debugf("Take aborted: %v", takeErr)
		err = stackerr.Wrap(takeErr)
		return
	}
	err = c.sendValue(addr, true)
	if err != nil {
		c.log.Warnf("Taken %v was not sent. Offer it back.", addr)
		c.Cache.Offer(addr)
	}
	return
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// watchDisconnect calls onDisconnect, when connection closed by client.
// No one should read from conn until returned stop func is called.
// Connections that can't interrupt read, are not watched.
func (c *conn) watchDisconnect(onDisconnect func()) (stop func()) {
	d, ok := c.rwc.(readDeadliner)
	if !ok {
		return func() {}
	}
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Peek(1)
		select {
		case <-stopped:
			// Read interrupted by stop, or client sent next command.
			return
		default:
		}
		if err != nil {
			c.log.Debugf("Client disconnected during take: %v", err)
			onDisconnect()
		}
	}()
	return func() {
		close(stopped)
		d.SetReadDeadline(time.Now())
		<-done
		d.SetReadDeadline(time.Time{})
	}
}

func (c *conn) size(fields [][]byte) (clientErr, err error) {
	clientErr = checkFields(fields, 0, 0)
	if clientErr != nil {
		return
	}
	err = c.sendResponse(SizeResponse + " " + strconv.Itoa(c.Cache.Len()))
	return
}

func (c *conn) close(fields [][]byte) (clientErr, err error) {
	clientErr = checkFields(fields, 0, 0)
	if clientErr != nil {
		return
	}
	c.Cache.Close()
	err = c.sendResponse(OKResponse)
	return
}

func (c *conn) expire(fields [][]byte) (clientErr, err error) {
	clientErr = checkFields(fields, 0, 0)
	if clientErr != nil {
		return
	}
	seconds := strconv.FormatFloat(c.Cache.Expire().Seconds(), 'f', -1, 64)
	err = c.sendResponse(ExpireResponse + " " + seconds)
	return
}

func (c *conn) stats(fields [][]byte) (clientErr, err error) {
	clientErr = checkFields(fields, 0, 0)
	if clientErr != nil {
		return
	}
	if c.Metrics != nil {
		for _, s := range snapshotStats(c.Metrics) {
			fmt.Fprintf(c, "%s %s %v"+Separator, StatResponse, s.name, s.value)
		}
	}
	err = c.sendResponse(EndResponse)
	return
}

type stat struct {
	name  string
	value interface{}
}

// snapshotStats returns sorted by name values of counters, gauges and timers.
func snapshotStats(r metrics.Registry) (stats []stat) {
	r.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			stats = append(stats, stat{name, m.Count()})
		case metrics.Gauge:
			stats = append(stats, stat{name, m.Value()})
		case metrics.Timer:
			t := m.Snapshot()
			stats = append(stats,
				stat{name + ".count", t.Count()},
				stat{name + ".mean_ns", int64(t.Mean())},
				stat{name + ".max_ns", t.Max()},
			)
		}
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].name < stats[j].name })
	return
}

func (c *conn) parseAddrField(fields [][]byte) (addr netip.Addr, err error) {
	err = checkFields(fields, 1, 1)
	if err != nil {
		return
	}
	return parseAddr(fields[0])
}

func (c *conn) sendValue(addr netip.Addr, ok bool) error {
	if !ok {
		return c.sendResponse(EmptyResponse)
	}
	return c.sendResponse(ValueResponse + " " + addr.String())
}

func (c *conn) sendBool(b bool, yes, no string) error {
	if b {
		return c.sendResponse(yes)
	}
	return c.sendResponse(no)
}

func (c *conn) serverError(err error) {
	err = util.Unwrap(err)
	if err == io.ErrUnexpectedEOF || err == context.Canceled {
		c.log.Debug("Connection aborted: ", err)
		return
	}
	c.log.Error("Server error: ", err)
	c.sendResponse(fmt.Sprintf("%s %s", ServerErrorResponse, err))
}

func (c *conn) sendClientError(err error) error {
	c.log.Warn("Client error: ", err)
	err = util.Unwrap(err)
	return c.sendResponse(fmt.Sprintf("%s %s", ClientErrorResponse, err))
}

func (c *conn) sendResponse(res string) error {
	c.WriteString(res)
	c.WriteString(Separator)
	return c.Flush()
}

func (c *conn) Flush() error {
	return stackerr.Wrap(c.Writer.Flush())
}
