/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/cmd"

func main() {
	cmd.Execute()
}
