package main

import "github.com/Adithya-Monish-Kumar-K/docqa/internal/cli"

func main() {
	cli.Execute()
}
