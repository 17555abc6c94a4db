package main

import (
	"web-page-analyzer/internal/bootstrap"
)

func main() {
	bootstrap.NewApp().Run()
}
