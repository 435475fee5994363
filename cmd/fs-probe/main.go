package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"FlowSentry/internal/config"
	"FlowSentry/internal/engine/protocol"
	"FlowSentry/internal/probe"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	iface := flag.String("iface", "", "Interface to capture from (overrides config).")
	list := flag.Bool("list", false, "List capture-capable interfaces and exit.")
	flag.Parse()

	if *list {
		listInterfaces()
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *iface != "" {
		cfg.Probe.Interface = *iface
	}
	if cfg.Probe.Interface == "" {
		log.Fatal("No capture interface configured; set probe.interface or pass -iface.")
	}

	pub, err := probe.NewPublisher(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	handle, err := pcap.OpenLive(cfg.Probe.Interface, cfg.Probe.SnapshotLen, cfg.Probe.Promiscuous, pcap.BlockForever)
	if err != nil {
		log.Fatalf("Error opening device %s: %v", cfg.Probe.Interface, err)
	}
	defer handle.Close()

	log.Printf("Capture started on %s. Publishing packets to NATS...", cfg.Probe.Interface)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
		published := 0
		for packet := range packetSource.Packets() {
			ft, obs, err := protocol.Parse(packet)
			if err != nil {
				continue // Skip non-IPv4 packets
			}
			if err := pub.Publish(&probe.Envelope{Tuple: ft, Obs: obs}); err != nil {
				log.Printf("Failed to publish packet: %v", err)
			}
			published++
			if published%1000 == 0 {
				log.Printf("%d packets published...", published)
			}
		}
	}()

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}

func listInterfaces() {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		log.Fatalf("Failed to enumerate interfaces: %v", err)
	}
	for _, dev := range devs {
		fmt.Printf("%s", dev.Name)
		if dev.Description != "" {
			fmt.Printf(" (%s)", dev.Description)
		}
		for _, addr := range dev.Addresses {
			fmt.Printf(" %s", addr.IP)
		}
		fmt.Println()
	}
}
