// Package pcap feeds captured trace files into the pipeline for offline
// analysis.
package pcap

import (
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"FlowSentry/internal/engine/protocol"
	"FlowSentry/internal/probe"
)

// Reader reads packets from a pcap file.
type Reader struct {
	handle *pcap.Handle
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// Close closes the pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadPackets parses every packet in the file and sends the envelopes to
// out. Unparseable packets are counted and skipped. The channel is closed
// when the file is exhausted.
func (r *Reader) ReadPackets(out chan<- *probe.Envelope) {
	defer close(out)

	skipped := 0
	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range packetSource.Packets() {
		ft, obs, err := protocol.Parse(packet)
		if err != nil {
			skipped++
			continue
		}
		out <- &probe.Envelope{Tuple: ft, Obs: obs}
	}
	if skipped > 0 {
		log.Printf("Skipped %d non-IPv4 or malformed packets", skipped)
	}
}
