package source

import (
	"fmt"

	"go.bug.st/serial"

	"SerialScope/internal/config"
)

// OpenPort opens a serial device with the configured line settings. Closing
// the returned port unblocks a pending Read, which is how producer tasks are
// cancelled.
func OpenPort(path string, cfg config.SerialConfig) (serial.Port, error) {
	parity, err := parseParity(cfg.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := parseStopBits(cfg.StopBits)
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: cfg.DataBits,
		Parity:   parity,
		StopBits: stopBits,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return port, nil
}

func parseParity(s string) (serial.Parity, error) {
	switch s {
	case "", "none":
		return serial.NoParity, nil
	case "odd":
		return serial.OddParity, nil
	case "even":
		return serial.EvenParity, nil
	case "mark":
		return serial.MarkParity, nil
	case "space":
		return serial.SpaceParity, nil
	default:
		return serial.NoParity, fmt.Errorf("invalid parity %q: use none, odd, even, mark, or space", s)
	}
}

func parseStopBits(n int) (serial.StopBits, error) {
	switch n {
	case 1:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	default:
		return serial.OneStopBit, fmt.Errorf("invalid stop bits %d: use 1 or 2", n)
	}
}
