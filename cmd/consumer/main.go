package main

import "bitbucket.org/Amartha/go-fp-portfolio/cmd/consumer/cmd"

func main() {
	cmd.Execute()
}
