package main

import (
	"github.com/sentgo/sentgo"
)

func main() {
	sentgo.Execute()
}
