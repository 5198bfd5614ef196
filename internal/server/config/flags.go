package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/todoauth/internal/flagx"
)

// parseFlags overrides Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-k string   payload encryption key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-m int      refresh validity multiplier for "stay signed in"
//	-R string   Redis address for the revocation list (empty disables it)
//	-e string   environment name ("production" hardens logging and gin)
//
// Only these flags are read from args; the rest are left for other parsers.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-k", "-t", "-r", "-m", "-R", "-e"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "payload encryption key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&config.StaySignedInMultiplier, "m", config.StaySignedInMultiplier, "stay signed in multiplier")
	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only touch durations that were given, so sub-minute values from the
	// file or environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		}
	})
	return nil
}
