package main

import "github.com/ickb/orderbot/cmd"

func main() {
	cmd.Execute()
}
