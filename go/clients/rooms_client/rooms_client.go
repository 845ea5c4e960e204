package rooms_client

import (
	"github.com/livechat-docker/livechat/go/clients"
)

type RoomsClient struct {
	*clients.BaseClient
}

func NewRoomsClient(baseURL, clientID string) *RoomsClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &RoomsClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	if clientID != "" {
		client.SetHeader(ClientIDHeader, clientID)
	}

	return client
}
