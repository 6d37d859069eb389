package bus

import (
	"fmt"
	"strings"

	"github.com/govai-bd/govai/internal/config"
	"github.com/govai-bd/govai/internal/pkg/errors"
	"github.com/govai-bd/govai/internal/pkg/logger"
)

// NewBus creates a Bus from configuration.
func NewBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(log), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}

		group := cfg.KafkaGroup
		if group == "" {
			group = "govai-querylog"
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: group,
			ClientID:      "govai",
		}, log)

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
