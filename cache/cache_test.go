package cache

import (
	"net/netip"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/mock"

	"github.com/skipor/addrcache/internal/util"
	"github.com/skipor/addrcache/log"
	. "github.com/skipor/addrcache/testutil"
)

var _ = Describe("Config", func() {
	It("defaults", func() {
		c, err := New(log.NewNop(), Config[netip.Addr]{SweepInterval: -1})
		Expect(err).To(BeNil())
		defer c.Stop()
		Expect(c.Expire()).To(Equal(DefaultTTL))
		Expect(c.Metrics()).NotTo(BeNil())
	})
	It("negative ttl", func() {
		_, err := New(log.NewNop(), Config[netip.Addr]{TTL: -time.Second})
		Expect(util.Unwrap(err)).To(Equal(ErrNegativeTTL))
	})
	It("shared registry", func() {
		r := metrics.NewRegistry()
		c, err := New(log.NewNop(), Config[netip.Addr]{Metrics: r, SweepInterval: -1})
		Expect(err).To(BeNil())
		c.Offer(RandAddr())
		Expect(r.Get(OfferMetric).(metrics.Counter).Count()).To(BeEquivalentTo(1))
		Expect(r.Get(SizeMetric).(metrics.Gauge).Value()).To(BeEquivalentTo(1))
	})
})

var _ = Describe("Engine", func() {
	var (
		conf  Config[netip.Addr]
		c     *Engine[netip.Addr]
		clock *fakeClock
		a     []netip.Addr
	)
	BeforeEach(func() {
		conf = Config[netip.Addr]{}
		a = SeqAddrs(10)
	})
	JustBeforeEach(func() {
		c, clock = newTestEngine(conf)
	})
	AfterEach(func() {
		c.ExpectInvariantsOk()
		c.Stop()
	})
	Offer := func(keys ...netip.Addr) {
		for _, k := range keys {
			ExpectWithOffset(1, c.Offer(k)).To(BeTrue())
		}
	}
	ExpectPop := func(expected netip.Addr) {
		k, ok := c.Pop()
		ExpectWithOffset(1, ok).To(BeTrue())
		ExpectWithOffset(1, k).To(Equal(expected))
	}

	It("init", func() {
		Expect(c.IsEmpty()).To(BeTrue())
		Expect(c.Len()).To(BeZero())
		Expect(c.Expire()).To(Equal(testTTL))
	})

	Context("offer", func() {
		It("new key", func() {
			Offer(a[0])
			Expect(c.Contains(a[0])).To(BeTrue())
			Expect(c.Len()).To(Equal(1))
			Expect(c.counter(OfferMetric)).To(BeEquivalentTo(1))
		})
		It("sets expiry from clock", func() {
			Offer(a[0])
			Expect(c.table[a[0]].Expiry).To(Equal(clock.Now().Add(testTTL)))
		})
		It("refresh resets expiry", func() {
			Offer(a[0])
			clock.Advance(time.Second)
			Offer(a[0])
			Expect(c.Len()).To(Equal(1))
			Expect(c.table[a[0]].Expiry).To(Equal(clock.Now().Add(testTTL)))
			Expect(c.counter(RefreshMetric)).To(BeEquivalentTo(1))
		})
		It("refresh moves to front", func() {
			Offer(a[0], a[1], a[0])
			ExpectPop(a[0])
			ExpectPop(a[1])
			Expect(c.IsEmpty()).To(BeTrue())
		})
	})

	Context("fault", func() {
		var mc *MockCallback
		BeforeEach(func() {
			mc = &MockCallback{}
			conf.Validate = mc.Validate
		})
		AfterEach(func() { mc.AssertExpectations(GinkgoT()) })

		It("rejected key", func() {
			mc.On("Validate", a[0]).Return(ErrKeyRejected).Once()
			mc.On("Validate", a[1]).Return(nil).Once()
			Expect(c.Offer(a[0])).To(BeFalse())
			Expect(c.Offer(a[1])).To(BeTrue())
			Expect(c.Contains(a[0])).To(BeFalse())
			Expect(c.Keys()).To(Equal([]netip.Addr{a[1]}))
			Expect(c.counter(RejectMetric)).To(BeEquivalentTo(1))
		})
		It("panic recovered", func() {
			mc.On("Validate", a[0]).Run(func(mock.Arguments) {
				panic("validate panic")
			}).Return(nil).Once()
			Expect(c.Offer(a[0])).To(BeFalse())
			Expect(c.IsEmpty()).To(BeTrue())
			By("lock released")
			mc.On("Validate", a[1]).Return(nil).Once()
			Expect(c.Offer(a[1])).To(BeTrue())
		})
	})

	Context("remove key", func() {
		It("not found", func() {
			Offer(a[0])
			Expect(c.Remove(a[1])).To(BeFalse())
			Expect(c.Len()).To(Equal(1))
		})
		It("found", func() {
			Offer(a[0], a[1], a[2])
			Expect(c.Remove(a[1])).To(BeTrue())
			Expect(c.Contains(a[1])).To(BeFalse())
			Expect(c.Keys()).To(Equal([]netip.Addr{a[2], a[0]}))
			Expect(c.Remove(a[1])).To(BeFalse())
		})
	})

	Context("pop", func() {
		It("empty", func() {
			_, ok := c.Pop()
			Expect(ok).To(BeFalse())
		})
		It("recency order", func() {
			Offer(a...)
			for i := len(a) - 1; i >= 0; i-- {
				Expect(c.Contains(a[i])).To(BeTrue())
				ExpectPop(a[i])
				Expect(c.Contains(a[i])).To(BeFalse())
			}
			Expect(c.IsEmpty()).To(BeTrue())
			Expect(c.counter(RemoveMetric)).To(BeEquivalentTo(len(a)))
		})
		It("refreshed key drops index", func() {
			Offer(a[0], a[1], a[0])
			ExpectPop(a[0])
			Expect(c.table).NotTo(HaveKey(a[0]))
			Expect(c.Contains(a[1])).To(BeTrue())
			c.ExpectInvariantsOk()
		})
	})

	Context("peek", func() {
		It("empty", func() {
			_, ok := c.Peek()
			Expect(ok).To(BeFalse())
		})
		It("scenario", func() {
			Offer(a[0], a[1], a[2])
			k, ok := c.Peek()
			Expect(ok).To(BeTrue())
			Expect(k).To(Equal(a[2]))
			Expect(c.Len()).To(Equal(3))

			ExpectPop(a[2])
			Expect(c.Len()).To(Equal(2))
			Expect(c.Contains(a[2])).To(BeFalse())
		})
	})

	Context("close", func() {
		It("empty", func() {
			c.Close()
			Expect(c.IsEmpty()).To(BeTrue())
		})
		It("idempotent", func() {
			Offer(a...)
			c.Close()
			Expect(c.Len()).To(BeZero())
			Expect(c.IsEmpty()).To(BeTrue())
			c.Close()
			Expect(c.IsEmpty()).To(BeTrue())
			for _, k := range a {
				Expect(c.Contains(k)).To(BeFalse())
			}
		})
		It("usable after close", func() {
			Offer(a[0], a[1])
			c.Close()
			Offer(a[1], a[2])
			Expect(c.Keys()).To(Equal([]netip.Addr{a[2], a[1]}))
			Expect(c.Remove(a[0])).To(BeFalse())
		})
	})

	Context("membership", func() {
		It("random operations", func() {
			live := map[netip.Addr]bool{}
			keys := RandAddrs(32)
			for i := 0; i < 1000; i++ {
				k := keys[Rand.Intn(len(keys))]
				switch Rand.Intn(4) {
				case 0, 1:
					Offer(k)
					live[k] = true
				case 2:
					Expect(c.Remove(k)).To(Equal(live[k]))
					delete(live, k)
				case 3:
					if p, ok := c.Pop(); ok {
						Expect(live[p]).To(BeTrue())
						delete(live, p)
					} else {
						Expect(live).To(BeEmpty())
					}
				}
				Expect(c.Contains(k)).To(Equal(live[k]))
				Expect(c.Len()).To(Equal(len(live)))
			}
			c.ExpectInvariantsOk()
		})
	})

	Context("expired but not swept", func() {
		It("still readable", func() {
			Offer(a[0], a[1])
			clock.Advance(testTTL + time.Second)
			Expect(c.Contains(a[1])).To(BeTrue())
			k, ok := c.Peek()
			Expect(ok).To(BeTrue())
			Expect(k).To(Equal(a[1]))
			ExpectPop(a[1])
			Expect(c.Remove(a[0])).To(BeTrue())
		})
	})
})

var _ = Describe("Engine lifecycle", func() {
	It("stop is idempotent", func() {
		c, err := New(log.NewNop(), Config[netip.Addr]{SweepInterval: time.Hour})
		Expect(err).To(BeNil())
		c.Stop()
		c.Stop()
		Expect(c.Offer(RandAddr())).To(BeTrue())
	})
	It("stop without sweeper", func() {
		c, _ := newTestEngine(Config[netip.Addr]{})
		c.Stop()
		c.Stop()
	})
})
