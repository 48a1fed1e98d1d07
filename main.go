package main

import (
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/patrikhermansson/olof/cmd"
)

// main is the entry point of the application. Logging is configured by the
// core package from the DEBUG_OLOF environment variable. A goroutine listens
// for an interrupt signal and exits the program when one arrives.
func main() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	go listenForInterrupt(stopChan)

	cmd.Execute()
}

// listenForInterrupt listens for an interrupt signal and exits the program
// when it is received.
func listenForInterrupt(stopChan chan os.Signal) {
	<-stopChan
	log.Fatal().Msg("Interrupt signal received. Exiting...")
}
