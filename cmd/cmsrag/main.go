package main

import (
	"github.com/joho/godotenv"

	"cmsrag/internal/cli"
)

func main() {
	// Values in a local .env win over the environment; a missing file is fine.
	_ = godotenv.Overload()

	cli.Execute()
}
