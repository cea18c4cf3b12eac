// Command stoplightctl sends one JSON request to a stoplight controller
// and prints the decoded response.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Zereker/stoplight"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:65432", "controller address")
	cmd := flag.String("cmd", "status", "command to send")
	flag.Parse()

	client, err := stoplight.Dial(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer client.Close()

	payload, err := client.Do(map[string]any{"cmd": *cmd})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	out, err := json.Marshal(payload.Value)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
