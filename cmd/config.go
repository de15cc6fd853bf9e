package cmd

import (
	"time"

	"fulfillment/internal/core/domain/model/order"
)

type Config struct {
	HTTPPort                  string
	DBHost                    string
	DBPort                    string
	DBUser                    string
	DBPassword                string
	DBName                    string
	DBSslMode                 string
	DirectoryBaseURL          string
	KafkaHost                 string
	KafkaConsumerGroup        string
	KafkaBasketConfirmedTopic string
	KafkaOrderChangedTopic    string
	SweepInterval             time.Duration
	Timings                   order.Timings
	FeePolicy                 order.FeePolicy
}
