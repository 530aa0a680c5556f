package jwtx

import (
	"context"

	"github.com/aussiebroadwan/authkit/pkg/idx"
	"github.com/google/uuid"
)

// ULIDGenerator returns lexically sortable ULIDs for the "jti" claim.
func ULIDGenerator() JTIGenerator {
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return idx.New().String(), nil
	}
}

// UUIDGenerator returns random (v4) UUIDs for the "jti" claim.
func UUIDGenerator() JTIGenerator {
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
}
