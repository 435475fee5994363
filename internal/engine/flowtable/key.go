package flowtable

import (
	"bytes"
	"fmt"

	"FlowSentry/internal/model"
)

// Key is the canonical, direction-independent identity of a flow. Both
// orientations of a conversation produce the same Key, so a single shard
// lock covers the lookup-or-create for racing first packets.
type Key string

// CanonicalKey orders the two (address, port) endpoint pairs so that the
// lexicographically smaller endpoint comes first, then appends the protocol
// number. Packets with no transport ports carry port 0 on both sides and key
// on addresses and protocol alone.
func CanonicalKey(ft model.FiveTuple) Key {
	aIP, bIP := ft.SrcIP.To16(), ft.DstIP.To16()
	aPort, bPort := ft.SrcPort, ft.DstPort

	if endpointLess(bIP, bPort, aIP, aPort) {
		aIP, bIP = bIP, aIP
		aPort, bPort = bPort, aPort
	}
	return Key(fmt.Sprintf("%s:%d-%s:%d-%d", aIP, aPort, bIP, bPort, ft.Protocol))
}

func endpointLess(aIP []byte, aPort uint16, bIP []byte, bPort uint16) bool {
	if c := bytes.Compare(aIP, bIP); c != 0 {
		return c < 0
	}
	return aPort < bPort
}
