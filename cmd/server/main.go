package main

import "github.com/campusconnect/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
