package db

import (
	"context"
	"errors"
	"testing"
)

type mapKV struct {
	values map[string]string
	err    error
}

func (m *mapKV) GetKV(_ context.Context, key string) (string, error) {
	return m.values[key], m.err
}

func (m *mapKV) SetKV(_ context.Context, key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func TestFeatureDefaultsAndRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := &mapKV{values: map[string]string{}}

	on, err := IsEnabled(ctx, kv, -100, FeatureMediaCooldown)
	if err != nil || !on {
		t.Fatalf("media cooldown should default to on, got %v %v", on, err)
	}
	on, err = IsEnabled(ctx, kv, -100, FeaturePremiumCheck)
	if err != nil || on {
		t.Fatalf("premium check should default to off, got %v %v", on, err)
	}

	if err := SetEnabled(ctx, kv, -100, FeaturePremiumCheck, true); err != nil {
		t.Fatalf("set feature: %v", err)
	}
	if kv.values["chat:-100:premium_check"] != "true" {
		t.Fatalf("unexpected stored values: %v", kv.values)
	}
	on, _ = IsEnabled(ctx, kv, -100, FeaturePremiumCheck)
	if !on {
		t.Fatalf("expected premium check to be on")
	}
	on, _ = IsEnabled(ctx, kv, -200, FeaturePremiumCheck)
	if on {
		t.Fatalf("feature leaked to another chat")
	}
}

func TestFeatureFallsBackOnStoreError(t *testing.T) {
	t.Parallel()

	kv := &mapKV{values: map[string]string{}, err: errors.New("db down")}
	on, err := IsEnabled(context.Background(), kv, 1, FeatureMediaCooldown)
	if err == nil {
		t.Fatalf("expected error to be reported")
	}
	if !on {
		t.Fatalf("expected default value on error")
	}
}
