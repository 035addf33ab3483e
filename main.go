package main

import (
	"fmt"
	"os"
)

const usage = "usage: btswitch <daemon|status|refresh|toggle [on|off]>"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := initLogging(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "error: log config: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "daemon":
		err = runDaemon(cfg)
	case "status", "refresh":
		err = runCommand(cfg, IPCRequest{Command: os.Args[1]})
	case "toggle":
		var arg string
		if len(os.Args) > 2 {
			arg = os.Args[2]
		}
		var desired *bool
		desired, err = parseDesired(arg)
		if err == nil {
			err = runCommand(cfg, IPCRequest{Command: "toggle", Desired: desired})
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
