// Package capture reads and writes serial bus captures as pcap files.
//
// Each flushed byte run is stored as one synthetic IPv4/UDP packet so that
// generic pcap tooling can group and color the two bus directions as two
// flows without any protocol-specific plugin. The UDP payload is the raw
// captured byte run; the addresses and ports carry only channel identity.
package capture

import (
	"fmt"
	"net"

	"SerialScope/internal/core/model"

	"github.com/google/gopacket/layers"
)

const (
	// SnapLen is the pcap snap length and therefore the largest synthetic
	// packet a capture file may contain.
	SnapLen = 200

	ipv4HeaderLen = 20
	udpHeaderLen  = 8

	// MaxPayload is the largest byte run a single record can carry. Longer
	// runs are split into consecutive records by the writer.
	MaxPayload = SnapLen - ipv4HeaderLen - udpHeaderLen

	packetTTL = 254
)

const (
	ctrlPort layers.UDPPort = 422
	nodePort layers.UDPPort = 1422

	// Port pair written by early capture producers for the node channel,
	// accepted on read only.
	legacyNodeSrcPort layers.UDPPort = 423
	legacyNodeDstPort layers.UDPPort = 1423
)

var (
	ctrlIP = net.IP{127, 0, 0, 1}
	nodeIP = net.IP{127, 0, 0, 2}
)

// endpoints returns the synthetic IPv4 addresses and UDP ports encoding the
// given channel. The port pair is swapped between the two channels so that
// (src, dst) alone determines direction.
func endpoints(ch model.Channel) (srcIP, dstIP net.IP, srcPort, dstPort layers.UDPPort) {
	if ch == model.ChannelCtrl {
		return ctrlIP, nodeIP, ctrlPort, nodePort
	}
	return nodeIP, ctrlIP, nodePort, ctrlPort
}

// channelForPorts maps a decoded UDP port pair back to its channel.
func channelForPorts(src, dst layers.UDPPort) (model.Channel, error) {
	switch {
	case src == ctrlPort && dst == nodePort:
		return model.ChannelCtrl, nil
	case src == nodePort && dst == ctrlPort:
		return model.ChannelNode, nil
	case src == legacyNodeSrcPort && dst == legacyNodeDstPort:
		return model.ChannelNode, nil
	default:
		return 0, fmt.Errorf("unrecognized port pair %d->%d", src, dst)
	}
}
