package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	RootMemberID         string
	PSFUnitAmount        decimal.Decimal
	PlacementScope       string
	PlacementMaxAttempts int

	EnablePSFPaymentConsumer  bool
	EnablePSFCreditedEmission bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "sacco"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	rootMemberID := strings.TrimSpace(os.Getenv("ROOT_MEMBER_ID"))
	if rootMemberID == "" {
		rootMemberID = "root"
	}

	unitAmount := decimal.NewFromInt(30)
	if raw := strings.TrimSpace(os.Getenv("PSF_UNIT_AMOUNT")); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse PSF_UNIT_AMOUNT: %w", err)
		}
		if parsed.Sign() <= 0 {
			return Config{}, fmt.Errorf("PSF_UNIT_AMOUNT must be positive, got %s", parsed)
		}
		unitAmount = parsed
	}

	scope := strings.TrimSpace(strings.ToLower(os.Getenv("PLACEMENT_OVERFLOW_SCOPE")))
	switch scope {
	case "":
		scope = "subtree"
	case "subtree", "global":
	default:
		return Config{}, fmt.Errorf("unknown PLACEMENT_OVERFLOW_SCOPE %q", scope)
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		RootMemberID:         rootMemberID,
		PSFUnitAmount:        unitAmount,
		PlacementScope:       scope,
		PlacementMaxAttempts: envInt("PLACEMENT_MAX_ATTEMPTS", 4),

		EnablePSFPaymentConsumer:  envBool("ENABLE_PSF_PAYMENT_CONSUMER", true),
		EnablePSFCreditedEmission: envBool("ENABLE_PSF_CREDITED_EMISSION", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
