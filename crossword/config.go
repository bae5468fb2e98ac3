package crossword

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/randomouscrap98/wordgrid/utils"
)

type Config struct {
	DatabasePath       string         // path to the puzzle database
	AnswerKey          string         // hex encoded 32 byte key for answer obfuscation
	SessionSecret      string         // hex encoded secret for signing session cookies
	AuthoringTime      utils.Duration // how long a create/edit session lives
	PlayTime           utils.Duration // how long a play session lives
	RecountInterval    utils.Duration // how often to recompute public puzzle counts
	PageSize           int            // default library page size
	RandomSampleMax    int            // largest allowed random sample request
	HeavyLimitCount    int            // rate limit for search-ish endpoints
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
DatabasePath="data/crossword/crossword.db" # Path to the puzzle database
AnswerKey="%s"              # Key for answer obfuscation (32 bytes hex). Empty disables play sessions
SessionSecret="%s"          # Secret for signing session cookies (randomly generated)
AuthoringTime="1h"          # How long a create/edit session lives
PlayTime="2h"               # How long a play session lives
RecountInterval="5m"        # How often to recompute public puzzle counts
PageSize=9                  # Default library page size
RandomSampleMax=20          # Largest allowed random sample request
HeavyLimitCount=30          # Rate limit for search endpoints (count per interval)
HeavyLimitInterval="1m"     # Rate limit interval for search endpoints

# NOTE: changing AnswerKey invalidates the ciphertext handed to any play
# session currently in flight. Accepted; sessions are short lived.
`, time.Now().Format(time.RFC3339), randomHex(32), randomHex(32))
}
