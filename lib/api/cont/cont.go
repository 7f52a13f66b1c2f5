package cont

import (
	"context"

	"linktrack/entity"
)

type ctxKey string

const actorKey ctxKey = "actor"

func PutActor(c context.Context, actor entity.Actor) context.Context {
	return context.WithValue(c, actorKey, actor)
}

func GetActor(c context.Context) entity.Actor {
	actor, ok := c.Value(actorKey).(entity.Actor)
	if !ok {
		return entity.Actor{}
	}
	return actor
}
