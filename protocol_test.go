package addrcache

import (
	"bytes"
	"errors"
	"io"
	"net/netip"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"github.com/skipor/addrcache/internal/util"
	"github.com/skipor/addrcache/mocks"
	. "github.com/skipor/addrcache/testutil"
)

var _ = Describe("reader", func() {
	var (
		input          *bytes.Buffer
		r              reader
		command        []byte
		fields         [][]byte
		clientErr, err error
	)
	ReadCommand := func() {
		command, fields, clientErr, err = r.readCommand()
	}

	const correctCommand = "offer 10.0.0.1   ::1 " + Separator
	var expectedCommand = []byte("offer")
	var expectedFields = [][]byte{[]byte("10.0.0.1"), []byte("::1")}

	ExpectNoErrors := func() {
		Expect(clientErr).To(BeNil())
		Expect(err).To(BeNil())
	}
	ExpectCommandReaded := func() {
		ReadCommand()
		ExpectNoErrors()
		Expect(command).To(Equal(expectedCommand))
		Expect(fields).To(Equal(expectedFields))
	}
	ExpectErr := func(expectedErr error) {
		ReadCommand()
		Expect(util.Unwrap(err)).To(Equal(expectedErr))
		Expect(command).To(BeNil())
		Expect(fields).To(BeNil())
	}

	BeforeEach(func() {
		input = &bytes.Buffer{}
		r = newReader(input)
	})

	Context("read error", func() {
		var afterInputErr error
		JustBeforeEach(func() {
			afterInputErr = errors.New("some read error")
			mr := &mocks.Reader{}
			mr.On("Read", mock.Anything).Return(0, afterInputErr)
			r = newReader(io.MultiReader(input, mr))
		})

		Context("just after some commands", func() {
			var n int
			BeforeEach(func() {
				n = Rand.Intn(3)
				for i := 0; i < n; i++ {
					input.WriteString(correctCommand)
				}
			})
			It("fails after them", func() {
				for i := 0; i < n; i++ {
					ExpectCommandReaded()
				}
				ExpectErr(afterInputErr)
			})
		})

		Context("before command end", func() {
			BeforeEach(func() {
				input.WriteString("offer 10.0.0.1 ")
			})
			It("fails", func() {
				ExpectErr(afterInputErr)
			})
		})

		Context("before large command end", func() {
			BeforeEach(func() {
				input.Write(ChunkWithoutSeparators(5 * InBufferSize))
			})
			It("fails", func() {
				ExpectErr(afterInputErr)
			})
		})
	})

	ExpectEOF := func() {
		ReadCommand()
		Expect(util.Unwrap(err)).To(Equal(io.EOF))
		Expect(clientErr).To(BeNil())
		Expect(command).To(BeNil())
		Expect(fields).To(BeNil())
	}

	Context("empty input", func() {
		It("got EOF", func() {
			ExpectEOF()
		})
	})

	Context("unterminated input", func() {
		BeforeEach(func() {
			input.WriteString("offer")
		})
		It("got unexpected EOF", func() {
			ExpectErr(io.ErrUnexpectedEOF)
		})
	})

	Context("n correct commands", func() {
		var n int
		JustBeforeEach(func() {
			for i := 0; i < n; i++ {
				input.WriteString(correctCommand)
			}
		})
		AssertAllReadedWell := func() {
			It("all of them readed well", func() {
				for i := 0; i < n; i++ {
					ExpectCommandReaded()
				}
				ExpectEOF()
			})
		}

		Context("n = 0 ", func() {
			BeforeEach(func() { n = 0 })
			AssertAllReadedWell()
		})
		Context("n = some ", func() {
			BeforeEach(func() { n = Rand.Intn(50) + 1 })
			AssertAllReadedWell()
		})
		Context("n = really big ", func() {
			BeforeEach(func() {
				n = Rand.Intn(4*InBufferSize/len(correctCommand)) + 1
			})
			AssertAllReadedWell()
		})
	})

	Context("client error in input ", func() {
		// Test cases input structure: 1)correct command 2) some error input that produce error 3) correct command
		BeforeEach(func() {
			input.WriteString(correctCommand)
		})
		JustBeforeEach(func() {
			input.WriteString(correctCommand)
		})

		AssertClientErrEqual := func(expectedClientErr error) {
			It("client error equal expected", func() {
				ExpectCommandReaded()
				ReadCommand()
				if clientErr != nil {
					By("Got error: " + clientErr.Error())
				}
				Expect(util.Unwrap(clientErr)).To(Equal(expectedClientErr))
				Expect(err).To(BeNil())
				ExpectCommandReaded()
				ExpectEOF()
			})
		}

		Context("illegal separator", func() {
			BeforeEach(func() {
				input.WriteString(strings.TrimSuffix(correctCommand, Separator))
				input.WriteByte('\n')
			})
			AssertClientErrEqual(ErrInvalidLineSeparator)
		})

		Context("empty command", func() {
			BeforeEach(func() {
				input.WriteString("  " + Separator)
			})
			AssertClientErrEqual(ErrEmptyCommand)
		})

		Context("too large command", func() {
			BeforeEach(func() {
				// Large command without separators
				noSepBigChunk := ChunkWithoutSeparators(3*InBufferSize + Rand.Intn(InBufferSize))
				n := len(noSepBigChunk)
				noSepBigChunk[n/2+Rand.Intn(n/4)] = '\n'
				input.Write(noSepBigChunk)
				input.WriteString(Separator)
			})
			AssertClientErrEqual(ErrTooLargeCommand)
		})

		Context("too large command fits buffer", func() {
			BeforeEach(func() {
				input.Write(ChunkWithoutSeparators(MaxCommandSize + 1))
				input.WriteString(Separator)
			})
			AssertClientErrEqual(ErrTooLargeCommand)
		})

		Context("too large command with separator on buffer border", func() {
			BeforeEach(func() {
				chunk := ChunkWithoutSeparators(InBufferSize)
				chunk[len(chunk)-1] = '\r'
				input.Write(chunk)
				input.WriteByte('\n')
			})
			AssertClientErrEqual(ErrTooLargeCommand)
		})
	})
})

var _ = Describe("limits", func() {
	It("command fits input buffer", func() {
		Expect(MaxCommandSize).To(BeNumerically("<=", InBufferSize))
	})
	It("address fits command", func() {
		Expect(len(OfferCommand) + 1 + MaxAddrSize + len(Separator)).To(BeNumerically("<=", MaxCommandSize))
	})
})

var _ = Describe("parse", func() {
	Context("addr", func() {
		It("v4", func() {
			addr, err := parseAddr([]byte("192.168.0.1"))
			Expect(err).To(BeNil())
			Expect(addr).To(Equal(netip.MustParseAddr("192.168.0.1")))
		})
		It("v6 with zone", func() {
			addr, err := parseAddr([]byte("fe80::1%eth0"))
			Expect(err).To(BeNil())
			Expect(addr.Zone()).To(Equal("eth0"))
		})
		It("random round trip", func() {
			for i := 0; i < 100; i++ {
				expected := RandAddr()
				addr, err := parseAddr([]byte(expected.String()))
				Expect(err).To(BeNil())
				Expect(addr).To(Equal(expected))
			}
		})
		It("invalid", func() {
			for _, in := range []string{"", "localhost", "10.0.0", "10.0.0.256", "::g"} {
				_, err := parseAddr([]byte(in))
				Expect(util.Unwrap(err)).To(Equal(ErrInvalidAddr), "input %q", in)
			}
		})
		It("too large", func() {
			_, err := parseAddr(bytes.Repeat([]byte("1"), MaxAddrSize+1))
			Expect(util.Unwrap(err)).To(Equal(ErrTooLargeAddr))
		})
	})

	Context("fields", func() {
		f := [][]byte{[]byte("a"), []byte("b")}
		It("in range", func() {
			Expect(checkFields(f, 0, 2)).To(BeNil())
			Expect(checkFields(f, 2, 2)).To(BeNil())
			Expect(checkFields(nil, 0, 0)).To(BeNil())
		})
		It("not enough", func() {
			Expect(util.Unwrap(checkFields(f, 3, 3))).To(Equal(ErrMoreFieldsRequired))
		})
		It("too many", func() {
			Expect(util.Unwrap(checkFields(f, 0, 1))).To(Equal(ErrTooManyFields))
		})
	})
})
