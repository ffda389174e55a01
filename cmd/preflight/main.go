// cmd/preflight/main.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	servicesFile := strings.TrimSpace(os.Getenv("SERVICES_FILE"))
	statusAddr := strings.TrimSpace(os.Getenv("STATUS_ADDR"))

	if servicesFile == "" {
		servicesFile = "services.json"
	}

	raw, err := os.ReadFile(servicesFile)
	if err != nil {
		fail(fmt.Sprintf("%s unreadable: %v (the daemon exits without it).", servicesFile, err))
	}
	var services map[string]string
	if err := json.Unmarshal(raw, &services); err != nil {
		fail(fmt.Sprintf("%s is not a flat JSON object of name -> target pairs: %v", servicesFile, err))
	}
	if len(services) == 0 {
		warn(servicesFile + " lists no services; the daemon will idle.")
	} else {
		ok(fmt.Sprintf("%s lists %d services", servicesFile, len(services)))
	}

	if db == "" {
		warn("DATABASE_URL empty — daemon will use the in-memory store; history is lost on restart.")
	} else {
		ok("DATABASE_URL present")
	}

	if statusAddr == "" {
		warn("STATUS_ADDR empty — status endpoints disabled.")
	} else {
		ok("STATUS_ADDR=" + statusAddr)
	}

	ok("preflight passed")
}
