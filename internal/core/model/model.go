package model

import (
	"fmt"
	"time"
)

// Channel identifies which side of the monitored bus transmitted a byte run.
type Channel uint8

const (
	// ChannelCtrl is the controller-to-bus direction.
	ChannelCtrl Channel = iota
	// ChannelNode is the node-to-bus direction.
	ChannelNode
)

func (c Channel) String() string {
	switch c {
	case ChannelCtrl:
		return "ctrl"
	case ChannelNode:
		return "node"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}

// Other returns the opposite bus direction.
func (c Channel) Other() Channel {
	if c == ChannelCtrl {
		return ChannelNode
	}
	return ChannelCtrl
}

// ParseChannel maps a channel name ("ctrl" or "node") to its Channel value.
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "ctrl":
		return ChannelCtrl, nil
	case "node":
		return ChannelNode, nil
	default:
		return 0, fmt.Errorf("unknown channel %q: use ctrl or node", s)
	}
}

// Event is a chunk of bytes observed on one channel, stamped at receipt.
// Events flow from the producer tasks through the queue to the recorder.
type Event struct {
	Channel   Channel
	Data      []byte
	Timestamp time.Time
}

// Record is one flushed, channel-tagged byte run as stored in a capture file.
type Record struct {
	Channel   Channel
	Payload   []byte
	Timestamp time.Time
}
