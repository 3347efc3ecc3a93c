package main

import "github.com/consensys/hashproof/cmd"

func main() {
	cmd.Execute()
}
