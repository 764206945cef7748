/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/packetwire/cmd/packetwire/cmd"

func main() {
	cmd.Execute()
}
