package main

import "github.com/eleven-am/knock-line/internal/bootstrap"

func main() {
	bootstrap.Run()
}
