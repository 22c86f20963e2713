// Command sc-monitor prints capture records published live by a running
// sc-capture session with the probe enabled.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SerialScope/internal/config"
	"SerialScope/internal/core/model"
	"SerialScope/internal/probe"
)

func main() {
	url := flag.String("url", "", "NATS server URL (defaults to the config value).")
	subject := flag.String("subject", "", "NATS subject to subscribe to (defaults to the config value).")
	configPath := flag.String("config", "", "Optional YAML config file path.")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	if *url != "" {
		cfg.Probe.URL = *url
	}
	if *subject != "" {
		cfg.Probe.Subject = *subject
	}

	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(rec model.Record) {
		log.Printf("%s  %-4s  %4d bytes  %x",
			rec.Timestamp.Format("15:04:05.000000"), rec.Channel, len(rec.Payload), rec.Payload)
	}
	if err := sub.Start(handler); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
