package main

import "github.com/MeKo-Tech/hisrgb/internal/cmd"

func main() {
	cmd.Execute()
}
