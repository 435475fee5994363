// Package protocol decodes captured packets into the five-tuple and
// per-packet observation consumed by the flow table.
package protocol

import (
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"FlowSentry/internal/model"
)

var (
	// ErrNotIPv4 marks packets without an IPv4 network layer; callers count
	// and skip these rather than treating them as failures.
	ErrNotIPv4 = errors.New("protocol: not an IPv4 packet")
)

// Parse extracts the flow identity and the packet-level observation from a
// decoded packet. TCP packets contribute flags, header length and the
// advertised window; UDP packets a fixed 8-byte header; anything else is
// keyed on addresses and protocol alone with both ports zero.
func Parse(packet gopacket.Packet) (model.FiveTuple, model.PacketObservation, error) {
	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return model.FiveTuple{}, model.PacketObservation{}, ErrNotIPv4
	}
	ip := ipLayer.(*layers.IPv4)

	ft := model.FiveTuple{
		SrcIP:    ip.SrcIP,
		DstIP:    ip.DstIP,
		Protocol: uint8(ip.Protocol),
	}
	obs := model.PacketObservation{
		Timestamp: packet.Metadata().Timestamp,
		Size:      int(ip.Length),
	}

	switch ip.Protocol {
	case layers.IPProtocolTCP:
		tcpLayer := packet.Layer(layers.LayerTypeTCP)
		if tcpLayer == nil {
			return model.FiveTuple{}, model.PacketObservation{}, errors.New("protocol: IPv4 claims TCP but no TCP layer")
		}
		tcp := tcpLayer.(*layers.TCP)
		ft.SrcPort = uint16(tcp.SrcPort)
		ft.DstPort = uint16(tcp.DstPort)
		obs.HeaderLen = int(tcp.DataOffset) * 4
		obs.PayloadLen = len(tcp.Payload)
		obs.TCPFlags = tcpFlags(tcp)
		obs.HasFlags = true
		obs.WindowSize = tcp.Window
	case layers.IPProtocolUDP:
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			return model.FiveTuple{}, model.PacketObservation{}, errors.New("protocol: IPv4 claims UDP but no UDP layer")
		}
		udp := udpLayer.(*layers.UDP)
		ft.SrcPort = uint16(udp.SrcPort)
		ft.DstPort = uint16(udp.DstPort)
		obs.HeaderLen = 8
		obs.PayloadLen = len(udp.Payload)
	default:
		// ICMP and other IP protocols: no ports, header is the IP header.
		obs.HeaderLen = int(ip.IHL) * 4
		obs.PayloadLen = int(ip.Length) - int(ip.IHL)*4
		if obs.PayloadLen < 0 {
			obs.PayloadLen = 0
		}
	}

	return ft, obs, nil
}

func tcpFlags(tcp *layers.TCP) uint8 {
	var f uint8
	if tcp.FIN {
		f |= model.FlagFIN
	}
	if tcp.SYN {
		f |= model.FlagSYN
	}
	if tcp.RST {
		f |= model.FlagRST
	}
	if tcp.PSH {
		f |= model.FlagPSH
	}
	if tcp.ACK {
		f |= model.FlagACK
	}
	if tcp.URG {
		f |= model.FlagURG
	}
	if tcp.ECE {
		f |= model.FlagECE
	}
	if tcp.CWR {
		f |= model.FlagCWR
	}
	return f
}
