// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"flag"
)

// ServerFlags holds the listen address flags for the run command.
type ServerFlags struct {
	Port int
	IP   string
}

func (sf *ServerFlags) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&sf.Port, "listen-port", 10000, "TCP port number for the daemon api endpoint")
	fset.StringVar(&sf.IP, "listen-ip", "127.0.0.1", "TCP ip address for the daemon api endpoint")
}
