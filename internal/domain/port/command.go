package port

import (
	"context"

	"lane-pilot/internal/domain/entity"
)

// CommandSink получатель команд на каждый кадр
type CommandSink interface {
	// Submit передаёт команду контроллеру; ошибка относится только к этому кадру
	Submit(ctx context.Context, cmd entity.SteeringCommand) error
}
