package main

import "github.com/naka-gawa/stargazers/cmd"

func main() {
	cmd.Execute()
}
