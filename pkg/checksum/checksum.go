// Package checksum computes the 32-bit integrity code carried by every packet.
//
// The code is CRC-32 with the IEEE 802.3 polynomial, the same value produced by
// zlib, gzip, PNG and most crc32 libraries, so a host on the other side of the
// wire can reproduce it without this package. It detects accidental
// corruption only and must not be used as a security control.
package checksum

import "hash/crc32"

// Size is the encoded width of a checksum in bytes.
const Size = 4

// Sum returns the CRC-32 (IEEE) checksum of data. Sum(nil) is 0.
func Sum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Verify reports whether data still hashes to want.
func Verify(data []byte, want uint32) bool {
	return Sum(data) == want
}
