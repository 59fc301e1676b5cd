// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package afifo

// GrayEncode converts a binary position counter to its reflected-binary
// (Gray) encoding.
//
// Consecutive counter values encode to words that differ in exactly one
// bit. This is the property that makes the encoded pointer safe to
// sample from the other timing domain mid-transition: at most one bit
// is ever in flux, so any observed word is either the old or the new
// pointer, never a third value.
func GrayEncode(b uint64) uint64 {
	return b ^ b>>1
}

// GrayDecode converts a Gray-encoded pointer back to binary.
//
// Inverse of [GrayEncode]: each binary bit is the XOR of all Gray bits
// at or above it (prefix XOR from the top bit down).
func GrayDecode(g uint64) uint64 {
	g ^= g >> 32
	g ^= g >> 16
	g ^= g >> 8
	g ^= g >> 4
	g ^= g >> 2
	g ^= g >> 1
	return g
}
