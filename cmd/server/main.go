package main

import "github.com/vovakirdan/relaychat/internal/cli"

func main() {
	cli.Main()
}
