package main

import (
	"os"

	"github.com/GoIAM-Admin/GoIAM-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
