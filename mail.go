package credauth

import (
	"fmt"
)

// MailTemplate is the closed set of messages the engine can send. Each
// template declares the variables it requires; rendering fails before any
// delivery attempt when one is missing.
type MailTemplate uint8

const (
	// MailRegistrationOTP is an exported constant or variable used by the credential engine.
	MailRegistrationOTP MailTemplate = iota
	// MailResetOTP is an exported constant or variable used by the credential engine.
	MailResetOTP
)

const (
	mailVarName = "name"
	mailVarOTP  = "otp"
)

func (t MailTemplate) requiredVars() []string {
	switch t {
	case MailRegistrationOTP:
		return []string{mailVarName, mailVarOTP}
	case MailResetOTP:
		return []string{mailVarOTP}
	default:
		return nil
	}
}

func renderMail(t MailTemplate, appName string, vars map[string]string) (subject, body string, err error) {
	for _, key := range t.requiredVars() {
		if vars[key] == "" {
			return "", "", fmt.Errorf("mail template missing variable %q", key)
		}
	}

	switch t {
	case MailRegistrationOTP:
		subject = fmt.Sprintf("Welcome to %s", appName)
		body = fmt.Sprintf(
			"Hi %s,\n\nWelcome to %s! We are glad to have you.\n\nYour OTP for email verification is %s. It expires in 5 minutes.\n",
			vars[mailVarName], appName, vars[mailVarOTP],
		)
	case MailResetOTP:
		subject = fmt.Sprintf("%s password reset", appName)
		body = fmt.Sprintf(
			"Your OTP for resetting your %s password is %s. It expires in 5 minutes.\n\nIf you did not request this, you can ignore this message.\n",
			appName, vars[mailVarOTP],
		)
	default:
		return "", "", fmt.Errorf("unknown mail template %d", t)
	}

	return subject, body, nil
}
