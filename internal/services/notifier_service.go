package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	twilio "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/ronnyabuto/rent-service/internal/config"
	"github.com/ronnyabuto/rent-service/internal/models"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

// PaymentReceipt is the notification-intent value object the pipeline
// emits after a verified payment. The core never formats SMS copy beyond
// this; delivery is the dispatcher's problem.
type PaymentReceipt struct {
	TenantPhone string
	AmountCents int64
	UnitNumber  string
}

// NotificationService is the external-dispatch boundary. Both methods are
// called fire-and-forget outside any ledger lock; failures are logged,
// never propagated into payment processing.
type NotificationService interface {
	SendPaymentReceipt(ctx context.Context, receipt PaymentReceipt) error
	SendReconciliationAlert(ctx context.Context, n *models.PaymentNotification) error
}

type notificationService struct {
	cfg            *config.Config
	twilioClient   *twilio.RestClient
	sendgridClient *sendgrid.Client
}

func NewNotificationService(cfg *config.Config) NotificationService {
	twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &notificationService{
		cfg:            cfg,
		twilioClient:   twClient,
		sendgridClient: sendgrid.NewSendClient(cfg.SendgridAPIKey),
	}
}

func (s *notificationService) SendPaymentReceipt(_ context.Context, receipt PaymentReceipt) error {
	body := fmt.Sprintf("Payment of KES %.2f received for unit %s. Thank you.",
		float64(receipt.AmountCents)/100, receipt.UnitNumber)

	if !s.cfg.LDFlag_SendRealSMS {
		utils.Logger.Infof("send_real_sms off; would SMS +%s: %q", receipt.TenantPhone, body)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo("+" + receipt.TenantPhone)
	params.SetFrom(s.cfg.TwilioFromPhone)
	params.SetBody(body)

	_, err := s.twilioClient.Api.CreateMessage(params)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send receipt SMS to +%s via Twilio", receipt.TenantPhone)
		return fmt.Errorf("%w: failed to send sms via twilio: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}

// SendReconciliationAlert emails the ops queue about a transaction that
// could not be applied automatically.
func (s *notificationService) SendReconciliationAlert(_ context.Context, n *models.PaymentNotification) error {
	if s.cfg.ReconciliationEmail == "" {
		utils.Logger.Warnf("RECONCILIATION_EMAIL unset; skipping alert for transaction %s", n.TransactionID)
		return nil
	}

	from := mail.NewEmail(s.cfg.AppName, s.cfg.SendgridFromEmail)
	to := mail.NewEmail("Reconciliation Queue", s.cfg.ReconciliationEmail)

	subject := fmt.Sprintf("[Unmatched Payment] %s KES %.2f", n.TransactionID, float64(n.AmountCents)/100)
	plain := fmt.Sprintf(
		"Transaction %s from %s for KES %.2f at %s could not be reconciled.\nReason: %s\n",
		n.TransactionID, n.PayerPhone, float64(n.AmountCents)/100,
		n.TransactionTime.Format(time.RFC1123Z), utils.Val(n.FailureReason),
	)

	msg := mail.NewSingleEmail(from, subject, to, plain, "")
	if _, err := s.sendgridClient.Send(msg); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send reconciliation alert for transaction %s", n.TransactionID)
		return fmt.Errorf("%w: failed to send email via sendgrid: %v", utils.ErrExternalServiceFailure, err)
	}
	return nil
}
