package main

import (
	"os"

	"github.com/d60-Lab/blog-api/internal/cli"
)

//	@title			Blog API
//	@version		1.0
//	@description	博客文章 REST API
//	@BasePath		/

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
