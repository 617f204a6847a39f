package db

import (
	"context"
	"fmt"
	"strconv"
)

// Feature is a per-chat switch persisted in the kv store.
type Feature string

const (
	FeaturePremiumCheck  Feature = "premium_check"
	FeatureMediaCooldown Feature = "media_cooldown"
)

var featureDefaults = map[Feature]bool{
	FeaturePremiumCheck:  false,
	FeatureMediaCooldown: true,
}

type KV interface {
	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error
}

func FeatureKey(chatID int64, f Feature) string {
	return fmt.Sprintf("chat:%d:%s", chatID, f)
}

// IsEnabled reads the switch for chatID, falling back to the feature's default
// when it was never set or holds garbage.
func IsEnabled(ctx context.Context, kv KV, chatID int64, f Feature) (bool, error) {
	raw, err := kv.GetKV(ctx, FeatureKey(chatID, f))
	if err != nil {
		return featureDefaults[f], err
	}
	if raw == "" {
		return featureDefaults[f], nil
	}
	on, err := strconv.ParseBool(raw)
	if err != nil {
		return featureDefaults[f], nil
	}
	return on, nil
}

func SetEnabled(ctx context.Context, kv KV, chatID int64, f Feature, on bool) error {
	return kv.SetKV(ctx, FeatureKey(chatID, f), strconv.FormatBool(on))
}
