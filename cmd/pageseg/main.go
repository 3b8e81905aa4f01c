package main

import "github.com/manga-tools/pageseg/cmd/pageseg/cmd"

func main() {
	cmd.Execute()
}
