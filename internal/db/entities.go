package db

import (
	"database/sql"
	"time"
)

type (
	PremiumUser struct {
		UserID          int64        `db:"user_id"`
		HasBoosted      bool         `db:"has_boosted"`
		BoostVerifiedAt sql.NullTime `db:"boost_verified_at"`
	}

	Warning struct {
		ID       int64     `db:"id"`
		ChatID   int64     `db:"chat_id"`
		UserID   int64     `db:"user_id"`
		IssuedBy int64     `db:"issued_by"`
		IssuedAt time.Time `db:"issued_at"`
	}
)
