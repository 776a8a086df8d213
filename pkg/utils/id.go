package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateConnID generates a unique id for a websocket connection.
func GenerateConnID() string {
	return "conn_" + uuid.NewString()
}

// GenerateInstanceID identifies one server instance on the event bus.
func GenerateInstanceID() string {
	return "instance_" + uuid.NewString()
}

// GenerateMessageID builds a lexically sortable message id: a zero-padded
// unix-nano prefix keeps id ordering equal to send ordering, which the
// keyset pagination cursor relies on; the random suffix breaks ties.
func GenerateMessageID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("%020d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
