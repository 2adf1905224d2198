package testutil

import (
	"math/rand"
	"net/netip"

	fuzz "github.com/google/gofuzz"
	. "github.com/onsi/ginkgo"
)

var RandSource = rand.NewSource(GinkgoRandomSeed())
var Rand = rand.New(RandSource)
var Fuzzer = func() *fuzz.Fuzzer {
	// Default nil chance leaves some arrays zero, so RandAddr would often be unspecified.
	return fuzz.New().NilChance(0).RandSource(RandSource)
}()
var Fuzz = Fuzzer.Fuzz

// RandAddr returns random valid IPv4 or IPv6 address.
func RandAddr() netip.Addr {
	if Rand.Intn(2) == 0 {
		var a4 [4]byte
		Fuzz(&a4)
		return netip.AddrFrom4(a4)
	}
	var a16 [16]byte
	Fuzz(&a16)
	return netip.AddrFrom16(a16)
}

// RandAddrs returns n distinct random addresses.
func RandAddrs(n int) []netip.Addr {
	seen := make(map[netip.Addr]struct{}, n)
	addrs := make([]netip.Addr, 0, n)
	for len(addrs) < n {
		a := RandAddr()
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		addrs = append(addrs, a)
	}
	return addrs
}

// SeqAddrs returns n distinct IPv4 addresses 10.0.0.0, 10.0.0.1, ...
func SeqAddrs(n int) []netip.Addr {
	addrs := make([]netip.Addr, n)
	a := netip.AddrFrom4([4]byte{10, 0, 0, 0})
	for i := range addrs {
		addrs[i] = a
		a = a.Next()
	}
	return addrs
}
