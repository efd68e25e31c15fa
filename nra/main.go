package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/perinatalhealth/nra-app/nra/nracli"
)

func main() {
	if err := nracli.GetApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
