package main

import (
	"github.com/aimat-lab/xrdpattern-sub000/cmd/xrdingest/cmd"
)

func main() {
	cmd.Execute()
}
