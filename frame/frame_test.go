package frame

import (
	"bytes"
	"testing"

	"github.com/ascore-go/ascore/buffer"
)

func feed(buf *buffer.Buffer, data []byte) {
	region := buf.WriteRegion(len(data))
	n := copy(region, data)
	buf.Produced(n)
}

func TestDispatchEmptyPayload(t *testing.T) {
	buf := buffer.New()
	feed(buf, []byte{0, 0, 0, 7}) // length 0, seq 7

	var gotSeq byte
	called := false
	err := Dispatch(buf, PacketResponse, func(pt PacketType, seq byte, payload []byte) error {
		called = true
		gotSeq = seq
		if len(payload) != 0 {
			t.Errorf("expected empty payload, got %d bytes", len(payload))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if !called {
		t.Fatal("handler was not called")
	}
	if gotSeq != 7 {
		t.Errorf("seq = %d, want 7", gotSeq)
	}
	if buf.Len() != 0 {
		t.Errorf("expected read cursor advanced past the header, Len() = %d", buf.Len())
	}
}

func TestDispatchWaitsForMoreData(t *testing.T) {
	buf := buffer.New()
	feed(buf, []byte{5, 0, 0, 0}) // length 5 but no payload bytes yet

	called := false
	err := Dispatch(buf, PacketHandshake, func(PacketType, byte, []byte) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if called {
		t.Fatal("handler should not be called until the full payload arrives")
	}

	feed(buf, []byte{1, 2, 3, 4, 5})
	err = Dispatch(buf, PacketHandshake, func(pt PacketType, seq byte, payload []byte) error {
		called = true
		if !bytes.Equal(payload, []byte{1, 2, 3, 4, 5}) {
			t.Errorf("payload = %v", payload)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if !called {
		t.Fatal("handler should be called once the payload is complete")
	}
}

func TestDispatchMultiplePackets(t *testing.T) {
	buf := buffer.New()
	feed(buf, []byte{1, 0, 0, 0, 'a'})
	feed(buf, []byte{1, 0, 0, 1, 'b'})

	var payloads [][]byte
	err := Dispatch(buf, PacketResponse, func(pt PacketType, seq byte, payload []byte) error {
		cp := append([]byte(nil), payload...)
		payloads = append(payloads, cp)
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if len(payloads) != 2 || string(payloads[0]) != "a" || string(payloads[1]) != "b" {
		t.Errorf("payloads = %v", payloads)
	}
}

func TestAppendPacketRoundTrip(t *testing.T) {
	payload := []byte("hello")
	framed := AppendPacket(nil, 3, payload)

	buf := buffer.New()
	feed(buf, framed)

	var gotSeq byte
	var gotPayload []byte
	err := Dispatch(buf, PacketResponse, func(pt PacketType, seq byte, payload []byte) error {
		gotSeq = seq
		gotPayload = payload
		return nil
	})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if gotSeq != 3 || !bytes.Equal(gotPayload, payload) {
		t.Errorf("got seq=%d payload=%q", gotSeq, gotPayload)
	}
}
