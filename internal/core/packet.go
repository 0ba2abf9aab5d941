package core

// DataPacket is an origin tag plus an opaque byte payload. An empty
// Origin marks a locally sent packet; otherwise Origin is the peer
// address the payload arrived from. Packets are immutable once built:
// constructors copy the payload and callers must not mutate it after.
type DataPacket struct {
	Origin  string
	Payload []byte
}

// NewPacket builds a packet carrying a copy of payload.
func NewPacket(origin string, payload []byte) DataPacket {
	return DataPacket{Origin: origin, Payload: append([]byte(nil), payload...)}
}

// OutboundPacket builds a locally sent packet (empty origin).
func OutboundPacket(payload []byte) DataPacket {
	return NewPacket("", payload)
}

// Clone returns an independent copy of the packet.
func (p DataPacket) Clone() DataPacket {
	return NewPacket(p.Origin, p.Payload)
}
