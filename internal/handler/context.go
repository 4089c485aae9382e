package handler

import (
	"context"

	"github.com/route-roster/backend/internal/roster"
)

type ContextKey string

var (
	SubCtxKey    ContextKey = "sub"
	DirectoryCtx ContextKey = "directory"
)

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(SubCtxKey).(int64)
	return id
}

func directoryFrom(ctx context.Context) *roster.Directory {
	return ctx.Value(DirectoryCtx).(*roster.Directory)
}
