// Package transport streams plan batches to a remote injection agent over
// a websocket.
package transport

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/verte-zerg/ghosttype/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BatchMessage carries one batch of events. Seq starts at 1 and increases
// by one per batch on a connection.
type BatchMessage struct {
	Seq    int               `json:"seq"`
	Events []model.WireEvent `json:"events"`
}

// AckMessage acknowledges a batch once every event was applied and its
// delay observed.
type AckMessage struct {
	Seq   int    `json:"seq"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
