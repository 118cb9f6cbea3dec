// Command groupie is a command-line client for Groupie Tracker sites.
package main

import "github.com/pfrederiksen/groupie-tracker/internal/cli"

func main() {
	cli.Execute()
}
