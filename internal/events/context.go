package events

import (
	"context"

	"gamelib/internal/services"
)

func runIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := services.RunIDFromContext(ctx)
	return id
}
