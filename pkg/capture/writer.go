package capture

import (
	"fmt"
	"os"
	"time"

	"SerialScope/internal/core/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Writer appends channel-tagged byte runs to a pcap capture file.
//
// A Writer is not safe for concurrent use; the capture file handle is owned
// by exactly one consumer task for the lifetime of a session.
type Writer struct {
	f    *os.File
	pw   *pcapgo.Writer
	buf  gopacket.SerializeBuffer
	opts gopacket.SerializeOptions
}

// NewWriter creates the capture file and writes the pcap global header
// (LINKTYPE_IPV4, snap length SnapLen).
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	pw := pcapgo.NewWriter(f)
	if err := pw.WriteFileHeader(SnapLen, layers.LinkTypeIPv4); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}
	return &Writer{
		f:   f,
		pw:  pw,
		buf: gopacket.NewSerializeBuffer(),
		opts: gopacket.SerializeOptions{
			FixLengths:       true,
			ComputeChecksums: true,
		},
	}, nil
}

// WriteRecord appends one byte run for the given channel. An empty run is a
// no-op. Runs longer than MaxPayload are split into consecutive records, all
// tagged with the same channel and timestamp. A write error leaves the file
// in an indeterminate trailing state and the session must stop.
func (w *Writer) WriteRecord(ch model.Channel, data []byte, ts time.Time) error {
	for len(data) > 0 {
		chunk := data
		if len(chunk) > MaxPayload {
			chunk = chunk[:MaxPayload]
		}
		data = data[len(chunk):]
		if err := w.writePacket(ch, chunk, ts); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writePacket(ch model.Channel, payload []byte, ts time.Time) error {
	srcIP, dstIP, srcPort, dstPort := endpoints(ch)
	ip := &layers.IPv4{
		Version:  4,
		TTL:      packetTTL,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}
	udp := &layers.UDP{
		SrcPort: srcPort,
		DstPort: dstPort,
	}
	udp.SetNetworkLayerForChecksum(ip)

	if err := gopacket.SerializeLayers(w.buf, w.opts, ip, udp, gopacket.Payload(payload)); err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	pkt := w.buf.Bytes()
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(pkt),
		Length:        len(pkt),
	}
	if err := w.pw.WritePacket(ci, pkt); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close closes the underlying capture file.
func (w *Writer) Close() error {
	return w.f.Close()
}
