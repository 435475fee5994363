// trafficgen writes a synthetic capture for exercising fs-analyzer: a mix
// of ordinary client/server conversations plus one high-rate source that
// should trip the rate detector when paired with an attack-labeling model.
package main

import (
	"flag"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func main() {
	outputFile := flag.String("o", "traffic.pcap", "Output pcap file path")
	flowCount := flag.Int("flows", 50, "Number of benign flows to generate")
	packetsPerFlow := flag.Int("pkts", 20, "Packets per benign flow")
	burstCount := flag.Int("burst", 500, "Packets in the single-source burst")
	seed := flag.Int64("seed", 0, "Random seed (0 uses the current time)")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	now := time.Now()
	written := 0

	// Benign traffic: short request/response conversations.
	for i := 0; i < *flowCount; i++ {
		client := net.IP{10, 0, byte(i / 256), byte(i % 256)}
		server := net.IP{192, 168, 1, byte(1 + rng.Intn(20))}
		clientPort := layers.TCPPort(rng.Intn(65535-1024) + 1024)
		serverPort := layers.TCPPort([]int{80, 443, 8080}[rng.Intn(3)])

		for p := 0; p < *packetsPerFlow; p++ {
			ts := now.Add(time.Duration(i)*time.Second + time.Duration(p*rng.Intn(50))*time.Millisecond)
			if p%2 == 0 {
				written += writeTCP(w, rng, ts, client, server, clientPort, serverPort, rng.Intn(1200)+60)
			} else {
				written += writeTCP(w, rng, ts, server, client, serverPort, clientPort, rng.Intn(1200)+60)
			}
		}
	}

	// Burst traffic: one source hammering one target.
	attacker := net.IP{203, 0, 113, 66}
	target := net.IP{192, 168, 1, 1}
	for p := 0; p < *burstCount; p++ {
		ts := now.Add(time.Duration(p) * 2 * time.Millisecond)
		written += writeTCP(w, rng, ts, attacker, target,
			layers.TCPPort(rng.Intn(65535-1024)+1024), 80, 40)
	}

	log.Printf("Wrote %d packets to %s (seed %d)", written, *outputFile, *seed)
}

func writeTCP(w *pcapgo.Writer, rng *rand.Rand, ts time.Time, srcIP, dstIP net.IP, srcPort, dstPort layers.TCPPort, payloadSize int) int {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		SrcIP:    srcIP,
		DstIP:    dstIP,
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{
		SrcPort: srcPort,
		DstPort: dstPort,
		Seq:     rng.Uint32(),
		Ack:     rng.Uint32(),
		PSH:     payloadSize > 0,
		ACK:     true,
		Window:  14600,
	}
	tcp.SetNetworkLayerForChecksum(ip)

	payload := make([]byte, payloadSize)
	rng.Read(payload)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)); err != nil {
		log.Fatalf("Failed to serialize packet: %v", err)
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(buf.Bytes()),
		Length:        len(buf.Bytes()),
	}
	if err := w.WritePacket(ci, buf.Bytes()); err != nil {
		log.Fatalf("Failed to write packet: %v", err)
	}
	return 1
}
