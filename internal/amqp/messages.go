package amqp

import (
	"encoding/json"
	"time"
)

// ContributionSyncMessage asks the worker to mirror one contribution to the
// backup spreadsheet. It carries only the ID, the worker fetches the full row
// from the database so the sheet never sees stale data.
type ContributionSyncMessage struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewContributionSyncMessage(id string) *ContributionSyncMessage {
	return &ContributionSyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *ContributionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ContributionSyncMessageFromJSON(data []byte) (*ContributionSyncMessage, error) {
	var msg ContributionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
