package addrcache

import (
	"bufio"
	"bytes"
	"io"
	"net/netip"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"
)

const (
	// MaxAddrSize is enough for IPv6 with reasonable zone.
	MaxAddrSize    = 64
	MaxCommandSize = 1 << 10

	Separator = "\r\n"

	OfferCommand    = "offer"
	ContainsCommand = "contains"
	RemoveCommand   = "remove"
	PeekCommand     = "peek"
	TakeCommand     = "take"
	SizeCommand     = "size"
	CloseCommand    = "close"
	ExpireCommand   = "expire"
	StatsCommand    = "stats"
	QuitCommand     = "quit"

	StoredResponse      = "STORED"
	FoundResponse       = "FOUND"
	NotFoundResponse    = "NOT_FOUND"
	DeletedResponse     = "DELETED"
	ValueResponse       = "VALUE"
	EmptyResponse       = "EMPTY"
	SizeResponse        = "SIZE"
	OKResponse          = "OK"
	ExpireResponse      = "EXPIRE"
	StatResponse        = "STAT"
	EndResponse         = "END"
	ErrorResponse       = "ERROR"
	ClientErrorResponse = "CLIENT_ERROR"
	ServerErrorResponse = "SERVER_ERROR"

	// Implementation specific consts.
	InBufferSize  = 4 * (1 << 10)
	OutBufferSize = 4 * (1 << 10)
)

var _ = func() (_ struct{}) {
	if MaxCommandSize > InBufferSize {
		panic("max command should fit in input buffer")
	}
	return
}()

var (
	ErrTooLargeAddr         = errors.New("too large address")
	ErrInvalidAddr          = errors.New("invalid address")
	ErrTooManyFields        = errors.New("too many fields")
	ErrMoreFieldsRequired   = errors.New("more fields required")
	ErrTooLargeCommand      = errors.New("command length is too big")
	ErrEmptyCommand         = errors.New("empty command")
	ErrInvalidLineSeparator = errors.New("invalid line separator")
	ErrOfferRejected        = errors.New("offer rejected")

	separatorBytes = []byte(Separator)
)

func parseAddr(p []byte) (addr netip.Addr, err error) {
	if len(p) > MaxAddrSize {
		err = stackerr.Wrap(ErrTooLargeAddr)
		return
	}
	addr, err = netip.ParseAddr(string(p))
	if err != nil {
		err = errors.WithMessage(ErrInvalidAddr, err.Error())
	}
	return
}

// checkFields validates that there are from min to max fields.
func checkFields(fields [][]byte, min, max int) error {
	if len(fields) < min {
		return stackerr.Wrap(ErrMoreFieldsRequired)
	}
	if len(fields) > max {
		return stackerr.Wrap(ErrTooManyFields)
	}
	return nil
}

type reader struct {
	*bufio.Reader
}

func newReader(r io.Reader) reader {
	return reader{bufio.NewReaderSize(r, InBufferSize)}
}

// WARN: retuned byte slices points into read buffer and invalidated after next read.
func (r reader) readCommand() (command []byte, fields [][]byte, clientErr, err error) {
	var lineWithSeparator []byte
	// We accept only "\r\n" separator, so can't use ReadLine here.
	lineWithSeparator, err = r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		clientErr = stackerr.Wrap(ErrTooLargeCommand)
		err = r.discardCommand(endsWithCR(lineWithSeparator))
		return
	}
	if err == nil && len(lineWithSeparator) > MaxCommandSize {
		clientErr = stackerr.Wrap(ErrTooLargeCommand)
		if !bytes.HasSuffix(lineWithSeparator, separatorBytes) {
			err = r.discardCommand(false)
		}
		return
	}
	if err == io.EOF {
		if len(lineWithSeparator) != 0 {
			err = stackerr.Wrap(io.ErrUnexpectedEOF)
		}
		return
	}
	if err != nil {
		err = stackerr.Wrap(err)
		return
	}
	if !bytes.HasSuffix(lineWithSeparator, separatorBytes) {
		clientErr = stackerr.Wrap(ErrInvalidLineSeparator)
		return
	}
	line := bytes.TrimSuffix(lineWithSeparator, separatorBytes)
	split := bytes.Fields(line)
	if len(split) == 0 {
		clientErr = stackerr.Wrap(ErrEmptyCommand)
		return
	}
	command = split[0]
	fields = split[1:]
	return
}

// discardCommand discard all input untill next separator.
// afterCR means that already discarded input ends with '\r'.
func (r reader) discardCommand(afterCR bool) error {
	for {
		lineWithSeparator, err := r.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			afterCR = endsWithCR(lineWithSeparator)
			continue
		}
		if err != nil {
			return stackerr.Wrap(err)
		}
		if bytes.HasSuffix(lineWithSeparator, separatorBytes) ||
			afterCR && len(lineWithSeparator) == 1 {
			return nil
		}
		afterCR = false
	}
}

func endsWithCR(p []byte) bool {
	return len(p) != 0 && p[len(p)-1] == '\r'
}
