// Package frame implements MySQL's packet framing: a 3-byte
// little-endian length followed by a 1-byte sequence id and the
// payload. It pulls framed payloads out of a buffer.Buffer and
// dispatches them to a caller-supplied handler.
package frame

import (
	"github.com/ascore-go/ascore/buffer"
	"github.com/ascore-go/ascore/wire"
)

// headerSize is the fixed 3-byte length + 1-byte sequence header.
const headerSize = 4

// maxSegmentSize is the largest payload length a single segment can
// carry (0xFFFFFF); a segment this long means more segments follow
// and must be concatenated (§4.4).
const maxSegmentSize = 0xFFFFFF

// PacketType selects which payload parser the connection state
// machine applies to the next framed packet (the "next_packet_type"
// discriminator from the base spec's data model).
type PacketType int

const (
	PacketHandshake PacketType = iota
	PacketResponse
)

// Handler is called once per fully framed, possibly multi-segment,
// packet. seq is the sequence id of the packet's final segment.
type Handler func(packetType PacketType, seq byte, payload []byte) error

// Dispatch drains as many complete packets as are available in buf,
// calling handle for each and advancing buf's read cursor past every
// consumed header+payload. It returns when fewer than headerSize
// bytes remain, or when a payload is incomplete, or on the first
// handler error.
//
// packetType is read once per call; handlers that change what the
// next packet means (e.g. HANDSHAKE -> RESPONSE) take effect on the
// next Dispatch call, driven by the connection state machine.
func Dispatch(buf *buffer.Buffer, packetType PacketType, handle Handler) error {
	for {
		unread := buf.Unread()
		if len(unread) < headerSize {
			return nil
		}

		length := int(wire.Uint24(unread[0:3]))
		seq := unread[3]

		// Accumulate multi-segment packets (payload length ==
		// maxSegmentSize) into one logical payload before dispatch.
		var payload []byte
		consumed := 0
		segLen := length
		segOff := headerSize
		for {
			if len(unread) < segOff+segLen {
				return nil // wait for more bytes
			}
			payload = append(payload, unread[segOff:segOff+segLen]...)
			consumed = segOff + segLen
			if segLen < maxSegmentSize {
				break
			}
			if len(unread) < consumed+headerSize {
				return nil // wait for the next segment's header
			}
			nextHeader := unread[consumed : consumed+headerSize]
			segLen = int(wire.Uint24(nextHeader[0:3]))
			seq = nextHeader[3]
			segOff = consumed + headerSize
		}

		if err := handle(packetType, seq, payload); err != nil {
			return err
		}
		buf.Consume(consumed)
	}
}

// AppendPacket appends a framed packet (header + payload) for payload
// under sequence seq to dst, splitting into maxSegmentSize-sized
// segments if payload is large enough to require it.
func AppendPacket(dst []byte, seq byte, payload []byte) []byte {
	for {
		segLen := len(payload)
		if segLen > maxSegmentSize {
			segLen = maxSegmentSize
		}
		var hdr [4]byte
		wire.PutUint24(hdr[:3], uint32(segLen))
		hdr[3] = seq
		dst = append(dst, hdr[:]...)
		dst = append(dst, payload[:segLen]...)
		payload = payload[segLen:]
		seq++
		if segLen < maxSegmentSize {
			return dst
		}
	}
}
