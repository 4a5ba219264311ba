package eventhandlers

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"clipquest-backend/controllers"
	"clipquest-backend/models"
	"clipquest-backend/services"
)

// KafkaHandler consumes verification outcomes published by the external
// account-verification workflow and drives ownership conflict resolution.
type KafkaHandler struct {
	Reader    *kafka.Reader
	DB        *pgxpool.Pool
	Ownership *services.OwnershipService
}

func NewKafkaHandler(brokers []string, topic, groupID string, db *pgxpool.Pool, ownership *services.OwnershipService) *KafkaHandler {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &KafkaHandler{Reader: reader, DB: db, Ownership: ownership}
}

func (kh *KafkaHandler) Start() {
	defer kh.Reader.Close()
	for {
		m, err := kh.Reader.ReadMessage(context.Background())
		if err != nil {
			logrus.WithError(err).Error("error reading Kafka message")
			time.Sleep(1 * time.Second)
			continue
		}
		logrus.Infof("received Kafka message: %s", string(m.Value))
		kh.processMessage(string(m.Value))
	}
}

// Message formats:
//
//	AccountVerified:<account_id>:<user_id>
//	AccountVerificationFailed:<account_id>
func (kh *KafkaHandler) processMessage(message string) {
	const verifiedPrefix = "AccountVerified:"
	const failedPrefix = "AccountVerificationFailed:"

	switch {
	case strings.HasPrefix(message, verifiedPrefix):
		parts := strings.Split(message[len(verifiedPrefix):], ":")
		if len(parts) < 2 {
			logrus.Warn("invalid AccountVerified message format")
			return
		}
		kh.handleAccountVerified(parts[0], parts[1])
	case strings.HasPrefix(message, failedPrefix):
		accountID := message[len(failedPrefix):]
		if accountID == "" {
			logrus.Warn("invalid AccountVerificationFailed message format")
			return
		}
		_, err := kh.DB.Exec(context.Background(),
			`UPDATE social_accounts SET verification_status = 'FAILED' WHERE id = $1`,
			accountID,
		)
		if err != nil {
			logrus.WithError(err).WithField("account_id", accountID).Error("failed to mark account verification failed")
		}
	}
}

func (kh *KafkaHandler) handleAccountVerified(accountID, userID string) {
	var platform models.Platform
	err := kh.DB.QueryRow(context.Background(),
		`UPDATE social_accounts SET verification_status = 'VERIFIED'
		 WHERE id = $1 AND user_id = $2
		 RETURNING platform`,
		accountID, userID,
	).Scan(&platform)
	if err != nil {
		logrus.WithError(err).WithField("account_id", accountID).Error("failed to mark account verified")
		return
	}

	resolved := controllers.ResolveUserConflicts(kh.DB, kh.Ownership, accountID, userID, platform)
	logrus.WithFields(logrus.Fields{
		"account_id":      accountID,
		"user_id":         userID,
		"videos_resolved": resolved,
	}).Info("account verified, ownership conflicts resolved")
}
