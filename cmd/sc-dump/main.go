// Command sc-dump inspects a serial capture file.
//
// Without flags it lists every record in file order. With -channel it
// extracts one channel's byte stream, exactly as an external protocol
// decoder would consume it.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"SerialScope/internal/core/model"
	"SerialScope/pkg/capture"
)

func main() {
	channelName := flag.String("channel", "", "Extract raw bytes of one channel (ctrl or node) instead of listing records.")
	outPath := flag.String("o", "", "Write extracted bytes to this file instead of stdout.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sc-dump [flags] <capture.pcap>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	r, err := capture.NewReader(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open capture: %v", err)
	}
	defer r.Close()

	if *channelName == "" {
		if err := listRecords(r); err != nil {
			log.Fatalf("Failed to read capture: %v", err)
		}
		return
	}

	ch, err := model.ParseChannel(*channelName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}
	if _, err := io.Copy(out, r.ChannelReader(ch)); err != nil {
		log.Fatalf("Failed to extract channel %s: %v", ch, err)
	}
}

func listRecords(r *capture.Reader) error {
	for i := 0; ; i++ {
		rec, err := r.NextRecord()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("%5d  %s  %-4s  %4d  %s\n",
			i,
			rec.Timestamp.Format("15:04:05.000000"),
			rec.Channel,
			len(rec.Payload),
			preview(rec.Payload, 32),
		)
	}
}

// preview renders payload bytes as printable ASCII with dots for the rest.
func preview(data []byte, max int) string {
	if len(data) > max {
		data = data[:max]
	}
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 0x20 && b < 0x7F {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
