package identity

import (
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/randomouscrap98/wordgrid/utils"
)

func reasonableConfig(name string) *Config {
	config := Config{}
	// Get a baseline config from toml (includes a random token secret)
	rawconfig := GetDefaultConfig_Toml()
	err := toml.Unmarshal([]byte(rawconfig), &config)
	if err != nil {
		panic(err)
	}
	folder := utils.RandomTestFolder(name, true)
	config.DatabasePath = filepath.Join(folder, "identity.db")
	return &config
}

func newTestContext(name string) *IdentityContext {
	ictx, err := NewIdentityContext(reasonableConfig(name))
	if err != nil {
		panic(err)
	}
	return ictx
}

// Mailer that just records what it was asked to send
type recordingMailer struct {
	emails []string
	codes  []string
}

func (m *recordingMailer) SendResetCode(email string, code string) error {
	m.emails = append(m.emails, email)
	m.codes = append(m.codes, code)
	return nil
}
