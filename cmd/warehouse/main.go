package main

import "github.com/LENAX/akshare-warehouse/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
