package repository

import (
	"context"
	"encoding/json"
	"time"

	"yayago/domain"

	"github.com/redis/go-redis/v9"
)

// Sessions survive a modal reopen (failed submissions keep their
// evidence) but expire after a day of inactivity.
const sessionTTL = 24 * time.Hour

type sessionRedisRepository struct {
	client *redis.Client
}

func NewSessionRedisRepository(client *redis.Client) domain.SessionRepository {
	return &sessionRedisRepository{client: client}
}

func sessionKey(partnerUUID string) string {
	return "verifsession:" + partnerUUID
}

func (r *sessionRedisRepository) SaveSession(ctx context.Context, session *domain.WorkflowSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(session.PartnerUUID), raw, sessionTTL).Err()
}

func (r *sessionRedisRepository) GetSession(ctx context.Context, partnerUUID string) (*domain.WorkflowSession, error) {
	raw, err := r.client.Get(ctx, sessionKey(partnerUUID)).Bytes()
	if err == redis.Nil {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	var session domain.WorkflowSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	if session.Evidence == nil {
		session.Evidence = make(map[domain.VerificationStep]string)
	}
	return &session, nil
}

func (r *sessionRedisRepository) DeleteSession(ctx context.Context, partnerUUID string) error {
	return r.client.Del(ctx, sessionKey(partnerUUID)).Err()
}
