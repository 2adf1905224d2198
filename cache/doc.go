// Package cache provides concurrency-safe address cache with per entry expiry.
// * Keys are kept in stack order. The most lately offered or refreshed key is on top.
// * Offer of present key resets its expiry and moves it on top.
// * Pop, Peek and Take work with the top key. Take blocks while cache is empty.
// * Reads trust current membership. Only sweeper removes expired keys, so a key
// that is expired but not swept yet can still be read or taken.
// * One lock guards index and order together. Sweeper removes keys through
// the same locked path as callers, one key per lock acquisition.
package cache
