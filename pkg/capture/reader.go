package capture

import (
	"fmt"
	"io"
	"os"

	"SerialScope/internal/core/model"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Reader reads capture records back from a pcap file and exposes each
// channel's bytes as an ordinary sequential byte source. Bytes belonging to
// the other channel are buffered, not discarded, so both channels can be
// consumed from one Reader.
type Reader struct {
	f       *os.File
	pr      *pcapgo.Reader
	pending [2][]byte
	eof     bool
}

// NewReader opens a capture file produced by a Writer.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	pr, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read pcap header: %w", err)
	}
	if lt := pr.LinkType(); lt != layers.LinkTypeIPv4 {
		f.Close()
		return nil, fmt.Errorf("unexpected link type %v: not a serial capture", lt)
	}
	return &Reader{f: f, pr: pr}, nil
}

// NextRecord returns the next capture record in file order, or io.EOF.
// Corrupt framing, a missing transport header, or an unrecognized port pair
// are fatal to the reading session.
func (r *Reader) NextRecord() (*model.Record, error) {
	data, ci, err := r.pr.ReadPacketData()
	if err == io.EOF {
		r.eof = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	packet := gopacket.NewPacket(data, layers.LayerTypeIPv4, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, fmt.Errorf("corrupt record: %w", errLayer.Error())
	}
	l := packet.Layer(layers.LayerTypeUDP)
	if l == nil {
		return nil, fmt.Errorf("record has no UDP transport header")
	}
	udp := l.(*layers.UDP)

	ch, err := channelForPorts(udp.SrcPort, udp.DstPort)
	if err != nil {
		return nil, err
	}
	return &model.Record{
		Channel:   ch,
		Payload:   udp.Payload,
		Timestamp: ci.Timestamp,
	}, nil
}

// ReadChannel returns up to max bytes of the given channel, pulling and
// buffering records as needed. It returns io.EOF once the file is exhausted
// and no bytes of the channel remain.
func (r *Reader) ReadChannel(ch model.Channel, max int) ([]byte, error) {
	for len(r.pending[ch]) == 0 {
		if r.eof {
			return nil, io.EOF
		}
		rec, err := r.NextRecord()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return nil, err
		}
		r.pending[rec.Channel] = append(r.pending[rec.Channel], rec.Payload...)
	}
	n := max
	if n > len(r.pending[ch]) {
		n = len(r.pending[ch])
	}
	out := r.pending[ch][:n]
	r.pending[ch] = r.pending[ch][n:]
	return out, nil
}

// ChannelReader returns an io.Reader view of one channel's byte stream, in
// original relative order, for consumption by an external protocol decoder.
func (r *Reader) ChannelReader(ch model.Channel) io.Reader {
	return &channelReader{r: r, ch: ch}
}

type channelReader struct {
	r  *Reader
	ch model.Channel
}

func (c *channelReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	data, err := c.r.ReadChannel(c.ch, len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, data), nil
}

// Close closes the underlying capture file.
func (r *Reader) Close() error {
	return r.f.Close()
}
