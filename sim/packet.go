package sim

// Packet is an in-flight data unit. NextHop may equal the final
// destination; NoNode means the base station. Hops counts relay steps for
// delivery-rate accounting.
type Packet struct {
	Sender   NodeID
	NextHop  NodeID
	SizeBits int
	Hops     int
}

// NewPacket creates a packet originating at sender.
func NewPacket(sender NodeID, sizeBits int) *Packet {
	return &Packet{Sender: sender, NextHop: NoNode, SizeBits: sizeBits}
}
