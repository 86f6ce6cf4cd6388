// Command admintoken prints an admin token for the key in AUTH_KEY.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/adapter/auth"
	"github.com/MikeRez0/paymentrecon/internal/adapter/config"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
)

func main() {
	subject := flag.String("s", "admin", "Token subject")
	ttl := flag.Duration("t", 24*time.Hour, "Token lifetime")
	flag.Parse()

	conf, err := config.LoadAuth()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if conf.KeyHex == "" {
		fmt.Fprintln(os.Stderr, "AUTH_KEY is required")
		os.Exit(1)
	}

	ts, err := auth.New(conf.KeyHex)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, err := ts.CreateToken(port.TokenPayload{Subject: *subject, Role: port.RoleAdmin}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
