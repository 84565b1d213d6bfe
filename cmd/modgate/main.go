// Package main is the entry point for modgate.
package main

func main() {
	Execute()
}
