// Package cobs provides Consistent Overhead Byte Stuffing and a stream
// framer for zero-delimited packets.
package cobs

// A serial line carries no message boundaries. Each packet is COBS encoded
// so the payload never contains a zero byte, and a single zero byte is
// appended as the delimiter. The receiver splits the stream at zero bytes
// and decodes each run independently. A corrupted byte costs at most the
// packet it lands in: the next zero resynchronizes the stream.
