package app

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SendOrderConfirmation emails a checkout receipt when SMTP is enabled.
// Best effort: checkout never fails on mail errors.
func (a *Application) SendOrderConfirmation(to string, orderNumber string, total float64) error {
	smtp, err := a.settings.Smtp()
	if err != nil {
		return err
	}
	if !smtp.Enabled || smtp.Host == "" || to == "" {
		return nil
	}

	siteName := a.settings.GetString("system", "site_name")
	currency := a.settings.GetString("system", "currency")

	m := gomail.NewMessage()
	m.SetHeader("From", smtp.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("%s order %s confirmed", siteName, orderNumber))
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Thank you for your purchase.</p><p>Order <b>%s</b> has been received. Total: %s %.2f</p>",
		orderNumber, currency, total))

	d := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
	if err := d.DialAndSend(m); err != nil {
		zap.L().Warn("order confirmation mail failed",
			zap.String("order", orderNumber), zap.Error(err))
		return err
	}
	return nil
}
