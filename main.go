package main

import (
	"os"

	logger "github.com/sirupsen/logrus"

	"github.com/gluk-w/claworc/artifacts/internal/cli"
)

func main() {
	if err := cli.Execute(os.Stdout); err != nil {
		logger.Fatalf("%v", err)
	}
}
