package main

import (
	"CrayonFM/cmd"
	"log"
)

func main() {
	cmd.Execute()
	log.Println("Application command execution finished or server started.")
}
