package main

import (
	"fmt"
	"time"

	"github.com/randomouscrap98/wordgrid/crossword"
	"github.com/randomouscrap98/wordgrid/identity"
	"github.com/randomouscrap98/wordgrid/utils"
)

type Config struct {
	Address        string         // Address to run the server on
	ShutdownTime   utils.Duration // How long to wait for a graceful shutdown
	StaticFiles    string         // Path to static files
	AllowedOrigins []string       // Frontend origins allowed to send credentials
	Identity       *identity.Config
	Crossword      *crossword.Config
}

func GetDefaultConfig_Toml() string {
	return fmt.Sprintf(`# Config auto-generated on %s
Address=":5020"                # Address to run the server on
ShutdownTime="10s"             # How long to wait for a graceful shutdown
StaticFiles="static"           # Path to static files
AllowedOrigins=["http://localhost:5173"] # Frontend origins (credentialed cors)

[Identity]
%s
[Crossword]
%s
`, time.Now().Format(time.RFC3339),
		identity.GetDefaultConfig_Toml(),
		crossword.GetDefaultConfig_Toml())
}
