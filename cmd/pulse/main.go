package main

import (
	"flag"
	"fmt"

	"github.com/go-pulse/pulse/internal/core/bootstrap"
	"github.com/go-pulse/pulse/pkg/runner"
)

/**
 * @file: main.go
 * @description: pulse measurement core program
 */

var (
	configFile string
)

func init() {
	flag.StringVar(&configFile, "conf", "conf.d/config.toml", "conf file path, e.g. -conf ./conf.d/config.toml")
}

func main() {
	flag.Parse()
	printRunner()

	app, cleanup, err := initApp(configFile)
	if err != nil {
		panic(err)
	}
	bootstrap.Run(app, cleanup)
}

func printRunner() {
	fmt.Println("runner.pwd:", runner.Pwd)
	fmt.Println("runner.hostname:", runner.Hostname)
}
