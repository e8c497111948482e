package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"borges/internal/config"
	"borges/internal/platform/crypto"

	"github.com/alecthomas/kong"
)

// CLI mints bearer tokens accepted by the API when JWT_SECRET is set.
type CLI struct {
	Secret  string        `help:"Signing secret" env:"JWT_SECRET" required:""`
	Subject string        `arg:"" help:"Token subject, e.g. a client name"`
	TTL     time.Duration `help:"Token lifetime" default:"720h"`
}

func main() {
	config.LoadEnvFiles()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("token"),
		kong.Description("Mint a bearer token for the catalog API."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}

func (c *CLI) Run() error {
	return c.mint(os.Stdout)
}

func (c *CLI) mint(w io.Writer) error {
	token, err := crypto.GenerateToken(c.Secret, c.Subject, c.TTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
