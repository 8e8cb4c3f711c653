package main

import (
	cmd "github.com/dcnsakthi/intellica/cmd/intellica"
	"github.com/dcnsakthi/intellica/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting intellica")
	cmd.Execute()
}
