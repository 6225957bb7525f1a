/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/msb-blog/apiserver/cmd"

func main() {
	cmd.Execute()
}
