//go:build cli
// +build cli

package main

import (
	_ "mes.GO/custom"

	"mes.GO/cmd"
	"mes.GO/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
