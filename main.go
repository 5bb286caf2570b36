package main

import (
	"github.com/username/weeklygiving/src/handlers"
)

func main() {
	handlers.Execute()
}
