package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"path/filepath"
)

type EmailData struct {
	Name            string
	Message         string
	VerificationURL string
	LogoURL         string
}

func SendEmail(emailTo string, emailSubject string, data EmailData, templatePath string) error {

	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var body bytes.Buffer
	err = tmpl.Execute(&body, data)
	if err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	message := fmt.Sprintf(
		"From: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		os.Getenv("FROM_EMAIL"),
		emailSubject,
		body.String(),
	)

	auth := smtp.PlainAuth(
		"",
		os.Getenv("FROM_EMAIL"),
		os.Getenv("FROM_EMAIL_PASSWORD"),
		os.Getenv("FROM_EMAIL_SMTP"),
	)

	err = smtp.SendMail(os.Getenv("SMTP_ADDRESS"), auth, os.Getenv("FROM_EMAIL"), []string{emailTo}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendRefundEmail notifies a customer that a refund was issued against one of
// their orders.
func SendRefundEmail(emailTo string, name string, orderID uint, amount float64) error {
	emailData := EmailData{
		Name:    name,
		Message: fmt.Sprintf("A refund of %.2f for order #%d has been processed. It may take a few business days to reflect on your account.", amount, orderID),
		LogoURL: os.Getenv("STORE_LOGO_URL"),
	}

	templatePath := filepath.Join("templates", "refund_notification.html")
	return SendEmail(emailTo, "Refund Processed", emailData, templatePath)
}

