package main

import "dataset_downloader/internal/cli"

func main() {
	cli.Execute()
}
