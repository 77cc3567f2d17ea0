package main

import "github.com/frahmantamala/restaurant-ops/cmd"

func main() {
	cmd.Execute()
}
