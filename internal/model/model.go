package model

import (
	"net"
	"time"
)

// FiveTuple identifies one direction of a network conversation.
type FiveTuple struct {
	SrcIP    net.IP
	DstIP    net.IP
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8
}

// PacketObservation holds the measurements one packet contributes to a flow.
// Instances are immutable once built by the capture side.
type PacketObservation struct {
	Timestamp  time.Time
	Size       int
	TCPFlags   uint8
	HasFlags   bool
	HeaderLen  int
	PayloadLen int
	WindowSize uint16
}

// Classification is a classifier verdict for one flow snapshot.
type Classification struct {
	Label      string
	Confidence float64
}

// LabelBenign is the default verdict recorded when a result is rejected by
// the confidence gate.
const LabelBenign = "BENIGN"

// LabelError marks flows whose last classification attempt failed.
const LabelError = "Error"

// Alert is produced by the rate detector when a source address exceeds its
// event threshold inside the sliding window.
type Alert struct {
	SourceIP      string
	AttackType    string
	WindowSeconds int
	Count         int
	Threshold     int
	Timestamp     time.Time
}

// TCP flag bits in wire order.
const (
	FlagFIN uint8 = 0x01
	FlagSYN uint8 = 0x02
	FlagRST uint8 = 0x04
	FlagPSH uint8 = 0x08
	FlagACK uint8 = 0x10
	FlagURG uint8 = 0x20
	FlagECE uint8 = 0x40
	FlagCWR uint8 = 0x80
)

// IANA protocol numbers the pipeline treats specially.
const (
	ProtoICMP uint8 = 1
	ProtoTCP  uint8 = 6
	ProtoUDP  uint8 = 17
)

// ProtocolName returns a human-readable name for log lines. The numeric form
// stays canonical everywhere else.
func ProtocolName(p uint8) string {
	switch p {
	case ProtoTCP:
		return "TCP"
	case ProtoUDP:
		return "UDP"
	case ProtoICMP:
		return "ICMP"
	default:
		return "OTHER"
	}
}
