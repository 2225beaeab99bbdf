// Package consumer 外部预言机样本的 Kafka 消费入口
package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wyfcoding/dexsettlement/internal/dex/application"
	"github.com/wyfcoding/dexsettlement/pkg/logger"
	"github.com/wyfcoding/dexsettlement/pkg/mq"
)

// OracleTopic 预言机参考价样本主题
const OracleTopic = "oracle.reference.sample"

type OracleConsumer struct {
	consumer *mq.KafkaConsumer
	service  *application.DexService
}

func NewOracleConsumer(consumer *mq.KafkaConsumer, service *application.DexService) *OracleConsumer {
	return &OracleConsumer{consumer: consumer, service: service}
}

// Run 持续消费参考价样本直到 ctx 取消。
// 单条消息解析或入库失败只记日志，不中断消费。
func (c *OracleConsumer) Run(ctx context.Context) {
	logger.Info(ctx, "oracle consumer started", "topic", OracleTopic)
	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info(ctx, "oracle consumer stopped")
				return
			}
			logger.Error(ctx, "read oracle message failed", "error", err)
			continue
		}

		var input application.OracleSampleInput
		if err := json.Unmarshal(msg.Value, &input); err != nil {
			logger.Error(ctx, "decode oracle sample failed", "error", err, "offset", msg.Offset)
			continue
		}

		if err := c.service.IngestOracleSample(ctx, &input); err != nil {
			logger.Error(ctx, "ingest oracle sample failed", "error", err, "pool_id", input.PoolID)
		}
	}
}
