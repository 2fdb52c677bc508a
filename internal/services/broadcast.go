package services

import (
	"github.com/opencircle/backend/internal/config"
	"github.com/opencircle/backend/internal/models"
	"github.com/opencircle/backend/pkg/logger"
	pusher "github.com/pusher/pusher-http-go/v5"
)

const (
	chatChannel     = "chat"
	newMessageEvent = "new-message"
)

// BroadcastService fans chat messages out through the Pusher relay. When no
// relay credentials are configured the service is a no-op; persistence never
// depends on the relay being reachable.
type BroadcastService struct {
	client *pusher.Client
}

func NewBroadcastService(cfg config.PusherConfig) *BroadcastService {
	if !cfg.Enabled() {
		logger.Warn("broadcast_disabled", map[string]interface{}{
			"reason": "pusher credentials not configured",
		})
		return &BroadcastService{}
	}

	return &BroadcastService{
		client: &pusher.Client{
			AppID:   cfg.AppID,
			Key:     cfg.Key,
			Secret:  cfg.Secret,
			Cluster: cfg.Cluster,
			Secure:  true,
		},
	}
}

func (s *BroadcastService) Enabled() bool {
	return s.client != nil
}

func (s *BroadcastService) NewChatMessage(message *models.Message) error {
	if s.client == nil {
		return nil
	}
	return s.client.Trigger(chatChannel, newMessageEvent, message)
}
