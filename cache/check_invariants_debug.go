//go:build debug
// +build debug

// Gomega should not be dependency in non-debug build.

package cache

import (
	"errors"
	stdlog "log"

	"github.com/facebookgo/stackerr"
	. "github.com/onsi/gomega"
)

var _ = func() (_ struct{}) {
	RegisterFailHandler(GomegaFailHandler)
	return
}()

func GomegaFailHandler(message string, callerSkip ...int) {
	skip := 1
	if len(callerSkip) > 0 {
		skip += callerSkip[0]
	}
	stdlog.Fatal("FATAL: invariants are broken:", stackerr.WrapSkip(errors.New(message), skip))
}

func (l *list[K]) checkInvariants() {
	Expect(l.sentinel.owner).To(BeNil())
	var actualSize int
	for n := l.head(); !l.end(n); n = n.next {
		actualSize++
		Expect(n.prev.next).To(BeIdenticalTo(n))
		Expect(n.owner).To(BeIdenticalTo(l))
	}
	Expect(l.tail().next).To(BeIdenticalTo(l.sentinel))
	Expect(l.head().prev).To(BeIdenticalTo(l.sentinel))
	Expect(actualSize).To(Equal(l.size))
}

// checkInvariants requires lock be acquired.
func (c *Engine[K]) checkInvariants() {
	c.order.checkInvariants()
	for n := c.order.head(); !c.order.end(n); n = n.next {
		tn, ok := c.table[n.Key]
		Expect(ok).To(BeTrue(), "no table ref to %v", n.Key)
		Expect(tn).To(BeIdenticalTo(n), "table refs to another node")
	}
	ExpectWithOffset(1, c.order.size).To(Equal(len(c.table)), "too many items in table")
}
