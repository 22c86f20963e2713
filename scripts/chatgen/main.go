// chatgen generates a synthetic controller/node chatter capture for tooling
// smoke tests: alternating read polls and write commands with plausible
// ASCII framing, plus one oversized node burst to exercise record chunking.
package main

import (
	"flag"
	"log"
	"time"

	"SerialScope/internal/core/model"
	"SerialScope/pkg/capture"
)

const (
	eot = 0x04
	stx = 0x02
	etx = 0x03
	enq = 0x05
	ack = 0x06
)

// bcc computes the longitudinal block check over a frame body.
func bcc(body []byte) byte {
	var c byte
	for _, b := range body {
		c ^= b
	}
	return c
}

func reply(body string) []byte {
	frame := append([]byte{stx}, body...)
	frame = append(frame, etx)
	return append(frame, bcc(frame[1:]))
}

func main() {
	outputFile := flag.String("o", "test.pcap", "Output capture file path")
	exchanges := flag.Int("n", 20, "Number of poll/reply exchanges to generate")
	flag.Parse()

	w, err := capture.NewWriter(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create capture file: %v", err)
	}
	defer w.Close()

	poll := append([]byte{eot}, "22112323"...)
	poll = append(poll, enq)
	readReply := reply("2323+0033")
	writeCmd := append([]byte{eot}, "3311"...)
	writeCmd = append(writeCmd, reply("223+0442")...)

	ts := time.Now()
	step := 10 * time.Millisecond

	for i := 0; i < *exchanges; i++ {
		var cmd, resp []byte
		if i%2 == 0 {
			cmd, resp = poll, readReply
		} else {
			cmd, resp = writeCmd, []byte{ack}
		}
		if err := w.WriteRecord(model.ChannelCtrl, cmd, ts); err != nil {
			log.Fatalf("Failed to write record: %v", err)
		}
		ts = ts.Add(step)
		if err := w.WriteRecord(model.ChannelNode, resp, ts); err != nil {
			log.Fatalf("Failed to write record: %v", err)
		}
		ts = ts.Add(step)
	}

	// One run longer than a single record can hold, to exercise chunking in
	// downstream tooling.
	burst := make([]byte, 3*capture.MaxPayload+7)
	for i := range burst {
		burst[i] = byte('0' + i%10)
	}
	if err := w.WriteRecord(model.ChannelNode, burst, ts); err != nil {
		log.Fatalf("Failed to write record: %v", err)
	}

	log.Printf("Generated %d exchanges into %s", *exchanges, *outputFile)
}
