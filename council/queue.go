package council

import "github.com/google/uuid"

// QueuedMessage is one member-to-member message awaiting delivery at the
// next round boundary.
type QueuedMessage struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// messageQueue is the FIFO shared by all turns of one run and torn down with
// it. The collaboration engine is the single thread of control mutating it:
// turns execute strictly sequentially, so no locking is required.
type messageQueue struct {
	items []QueuedMessage
}

func newMessageQueue() *messageQueue {
	return &messageQueue{}
}

func (q *messageQueue) push(from, to, message string) QueuedMessage {
	msg := QueuedMessage{
		ID:      uuid.NewString(),
		From:    from,
		To:      to,
		Message: message,
	}
	q.items = append(q.items, msg)
	return msg
}

// drain removes and returns all queued messages in FIFO order.
func (q *messageQueue) drain() []QueuedMessage {
	items := q.items
	q.items = nil
	return items
}

func (q *messageQueue) len() int {
	return len(q.items)
}
