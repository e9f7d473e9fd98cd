package adapters

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"leela_client/internal/bootstrap"
)

type AdapterKafka struct {
	producer sarama.SyncProducer
	cfg      *bootstrap.Config
	log      *zap.SugaredLogger
}

func NewAdapterKafka(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterKafka {
	return &AdapterKafka{
		cfg: cfg,
		log: log,
	}
}

func (a *AdapterKafka) Init(ctx context.Context) error {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(a.cfg.KafkaBrokers, config)
	if err != nil {
		return fmt.Errorf("kafka producer failed: %w", err)
	}
	a.producer = producer

	a.log.Infow("connected to kafka", "brokers", a.cfg.KafkaBrokers, "topic", a.cfg.KafkaTopic)
	return nil
}

func (a *AdapterKafka) GetProducer() sarama.SyncProducer {
	return a.producer
}

func (a *AdapterKafka) Close(ctx context.Context) error {
	if a.producer != nil {
		return a.producer.Close()
	}
	return nil
}
