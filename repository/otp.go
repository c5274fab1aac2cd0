package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"yayago/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type otpRedisRepository struct {
	client *redis.Client
}

func NewOTPRedisRepository(client *redis.Client) domain.OTPRepository {
	return &otpRedisRepository{client: client}
}

func otpKey(partnerUUID string) string {
	return "otp:" + partnerUUID
}

func (r *otpRedisRepository) SaveOTP(ctx context.Context, partnerUUID, phone, code string, ttl time.Duration) error {
	key := otpKey(partnerUUID)

	// Only the bcrypt digest of the code is stored.
	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(code)), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	resends := 0
	prev, err := r.client.HGet(ctx, key, "resends").Result()
	if err == nil {
		n, _ := strconv.Atoi(prev)
		resends = n + 1
	} else if err != redis.Nil {
		return err
	}

	data := map[string]interface{}{
		"phone":    strings.TrimSpace(phone),
		"code":     string(hashed),
		"attempts": 0,
		"resends":  resends,
	}

	if err := r.client.HSet(ctx, key, data).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *otpRedisRepository) GetOTP(ctx context.Context, partnerUUID string) (*domain.OtpChallenge, error) {
	vals, err := r.client.HGetAll(ctx, otpKey(partnerUUID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil // not found
	}

	attempts, _ := strconv.Atoi(vals["attempts"])
	resends, _ := strconv.Atoi(vals["resends"])
	return &domain.OtpChallenge{
		PhoneNumber: vals["phone"],
		Attempts:    attempts,
		Resends:     resends,
	}, nil
}

func (r *otpRedisRepository) CheckCode(ctx context.Context, partnerUUID, code string) (bool, int, error) {
	key := otpKey(partnerUUID)
	vals, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if len(vals) == 0 {
		return false, 0, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(vals["code"]), []byte(code)) != nil {
		attempts, err := r.client.HIncrBy(ctx, key, "attempts", 1).Result()
		if err != nil {
			return false, 0, err
		}
		return false, int(attempts), nil
	}

	attempts, _ := strconv.Atoi(vals["attempts"])
	return true, attempts, nil
}

func (r *otpRedisRepository) DeleteOTP(ctx context.Context, partnerUUID string) error {
	return r.client.Del(ctx, otpKey(partnerUUID)).Err()
}
