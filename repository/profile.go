package repository

import (
	"context"
	"encoding/json"
	"time"

	"yayago/domain"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const profileCacheTTL = 10 * time.Minute

// profileRepository reads profiles through a Redis cache. The cache must
// be invalidated after any operation that changes verification state so
// eligibility badges reflect the new status on the next read.
type profileRepository struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewProfileRepository(db *gorm.DB, cache *redis.Client) domain.ProfileRepository {
	return &profileRepository{db: db, cache: cache}
}

func profileCacheKey(uuid string) string {
	return "profile:" + uuid
}

func (r *profileRepository) GetProfileByUUID(ctx context.Context, uuid string) (*domain.PartnerProfile, error) {
	if raw, err := r.cache.Get(ctx, profileCacheKey(uuid)).Bytes(); err == nil {
		var cached domain.PartnerProfile
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	}

	var profile domain.PartnerProfile
	if err := r.db.WithContext(ctx).First(&profile, "uuid = ? AND deleted_at IS NULL", uuid).Error; err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(&profile); err == nil {
		r.cache.Set(ctx, profileCacheKey(uuid), raw, profileCacheTTL)
	}
	return &profile, nil
}

func (r *profileRepository) UpdateProfile(ctx context.Context, profile *domain.PartnerProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return err
	}
	return r.InvalidateCache(ctx, profile.UUID)
}

func (r *profileRepository) CreateSubmission(ctx context.Context, sub *domain.VerificationSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *profileRepository) InvalidateCache(ctx context.Context, uuid string) error {
	return r.cache.Del(ctx, profileCacheKey(uuid)).Err()
}
