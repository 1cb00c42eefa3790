// configgen writes a starter sensorlogd config file and validates existing
// ones.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/edgelab-io/sensorlogd/internal/config"
)

func main() {
	var (
		output   = flag.String("output", "sensorlogd.toml", "where to write the config template")
		validate = flag.String("validate", "", "validate an existing config file instead of writing one")
		force    = flag.Bool("force", false, "overwrite the output file if it already exists")
	)
	flag.Parse()

	if *validate != "" {
		cfg, err := config.Load(*validate)
		if err != nil {
			fatalf("%s: %v", *validate, err)
		}
		if err := config.Validate(cfg); err != nil {
			fatalf("%s: %v", *validate, err)
		}
		fmt.Printf("%s: ok (endpoint1=%s endpoint2=%s output=%s)\n",
			*validate, cfg.Endpoint1Addr, cfg.Endpoint2Addr, cfg.OutputPath)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("wrote %s\n", *output)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "configgen: "+format+"\n", args...)
	os.Exit(1)
}
