package identity

import (
	"log"
)

// Outbound mail is somebody else's problem; this is the whole boundary.
type Mailer interface {
	SendResetCode(email string, code string) error
}

// Default mailer: logs that a code was issued. Deliberately does NOT log
// the code itself.
type LogMailer struct{}

func (m *LogMailer) SendResetCode(email string, code string) error {
	log.Printf("Password reset code issued for %s (delivery not configured)", email)
	return nil
}
