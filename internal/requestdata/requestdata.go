package requestdata

import (
	"context"

	"github.com/google/uuid"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type requestDataKey struct{}

// RequestData is the authenticated actor attached to the request context by
// the auth middleware. Everything below the handlers reads the actor from
// here, never from transport headers.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	Role        types.Role
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// Actor returns the authz view of the request's actor, or nil when the
// context carries no authenticated identity.
func (rd *RequestData) Actor() *types.Actor {
	if rd == nil || rd.UserID == uuid.Nil {
		return nil
	}
	return &types.Actor{ID: rd.UserID, Role: rd.Role}
}
