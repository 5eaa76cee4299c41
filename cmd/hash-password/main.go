// Command hash-password prints a bcrypt hash for ADMIN_PASSWORD_HASH.
//
//	go run ./cmd/hash-password 'my secret'
package main

import (
	"fmt"
	"os"

	"tips-publish-system/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: hash-password <password>")
		os.Exit(2)
	}

	hash, err := services.HashPassword(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("hashing failed")
	}
	fmt.Println(hash)
}
