package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

const (
	AppName             = "rent-service"
	LDConnectionTimeout = 5 * time.Second
	LDContextKind       = "service"
)

type Config struct {
	AppName string
	AppPort string
	AppUrl  string

	// DevMode runs against the in-memory repositories; no Postgres.
	DevMode bool
	DBUrl   string

	RSAPublicKey *rsa.PublicKey

	MpesaShortCode string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	SendgridAPIKey      string
	SendgridFromEmail   string
	ReconciliationEmail string

	LDFlag_SeedDbWithTestData bool
	LDFlag_SendRealSMS        bool
	LDFlag_ShortRetryPeriod   bool
}

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL")
	if appUrl == "" {
		appUrl = "http://localhost:" + appPort
	}

	devMode := os.Getenv("DEV_MODE") == "true"

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" && !devMode {
		utils.Logger.Fatal("DB_URL env var is missing (set DEV_MODE=true to run in-memory)")
	}

	pubB64 := os.Getenv("RSA_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		utils.Logger.Fatal("RSA_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	shortCode := os.Getenv("MPESA_SHORT_CODE")
	if shortCode == "" {
		utils.Logger.Fatal("MPESA_SHORT_CODE env var is missing")
	}

	twilioSID := os.Getenv("TWILIO_ACCOUNT_SID")
	twilioToken := os.Getenv("TWILIO_AUTH_TOKEN")
	twilioFrom := os.Getenv("TWILIO_FROM_PHONE")

	sendgridKey := os.Getenv("SENDGRID_API_KEY")
	sendgridFrom := os.Getenv("SENDGRID_FROM_EMAIL")
	reconEmail := os.Getenv("RECONCILIATION_EMAIL")

	cfg := &Config{
		AppName:             AppName,
		AppPort:             appPort,
		AppUrl:              appUrl,
		DevMode:             devMode,
		DBUrl:               dbURL,
		RSAPublicKey:        pubKey,
		MpesaShortCode:      shortCode,
		TwilioAccountSID:    twilioSID,
		TwilioAuthToken:     twilioToken,
		TwilioFromPhone:     twilioFrom,
		SendgridAPIKey:      sendgridKey,
		SendgridFromEmail:   sendgridFrom,
		ReconciliationEmail: reconEmail,

		// Env defaults, overridden by LaunchDarkly below when configured.
		LDFlag_SeedDbWithTestData: os.Getenv("SEED_DB_WITH_TEST_DATA") == "true",
		LDFlag_SendRealSMS:        os.Getenv("SEND_REAL_SMS") == "true",
		LDFlag_ShortRetryPeriod:   os.Getenv("SHORT_RETRY_PERIOD") == "true",
	}

	ldSDKKey := os.Getenv("LD_SDK_KEY")
	if ldSDKKey == "" {
		utils.Logger.Info("LD_SDK_KEY not set; using env-var flag defaults")
		return cfg
	}

	ldClient, err := ld.MakeClient(ldSDKKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind(LDContextKind, AppName)

	seedFlag, err := ldClient.BoolVariation("seed_db_with_test_data", ctx, cfg.LDFlag_SeedDbWithTestData)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving seed_db_with_test_data flag")
	}
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", seedFlag)

	smsFlag, err := ldClient.BoolVariation("send_real_sms", ctx, cfg.LDFlag_SendRealSMS)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving send_real_sms flag")
	}
	utils.Logger.Debugf("send_real_sms flag: %t", smsFlag)

	shortRetryFlag, err := ldClient.BoolVariation("short_retry_period", ctx, cfg.LDFlag_ShortRetryPeriod)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving short_retry_period flag")
	}
	utils.Logger.Debugf("short_retry_period flag: %t", shortRetryFlag)

	cfg.LDFlag_SeedDbWithTestData = seedFlag
	cfg.LDFlag_SendRealSMS = smsFlag
	cfg.LDFlag_ShortRetryPeriod = shortRetryFlag
	return cfg
}

func (c *Config) Close() {}
