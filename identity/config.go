package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/randomouscrap98/wordgrid/utils"
)

type Config struct {
	DatabasePath       string         // path to the user database
	TokenSecret        string         // hex encoded secret for signing auth tokens
	AccessTokenTime    utils.Duration // access token lifetime
	RefreshTokenTime   utils.Duration // refresh token (cookie) lifetime
	ResetCodeTime      utils.Duration // how long a password reset code is usable
	ResetPurgeInterval utils.Duration // how often to sweep dead reset codes
	HeavyLimitCount    int            // rate limit on login/register/forgot
	HeavyLimitInterval utils.Duration
}

func randomHex(bytes int) string {
	raw := make([]byte, bytes)
	_, err := rand.Read(raw)
	if err != nil {
		log.Printf("WARN: couldn't generate random secret")
	}
	return hex.EncodeToString(raw)
}

func GetDefaultConfig_Toml() string {
	return fmt.Sprintf(`# Config auto-generated on %s
DatabasePath="data/identity/identity.db" # Path to the user database
TokenSecret="%s"         # Secret for signing auth tokens (randomly generated)
AccessTokenTime="15m"    # Access token lifetime
RefreshTokenTime="168h"  # Refresh token cookie lifetime (7 days)
ResetCodeTime="15m"      # How long a password reset code is usable
ResetPurgeInterval="10m" # How often to sweep expired/used reset codes
HeavyLimitCount=10       # Rate limit for login/register/forgot (count per interval)
HeavyLimitInterval="1m"  # Rate limit interval
`, time.Now().Format(time.RFC3339), randomHex(32))
}
