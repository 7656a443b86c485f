package main

import "github.com/BobConanDev/db-sub001/cmd/flakedb/cmd"

func main() {
	cmd.Execute()
}
